package filter

import (
	"testing"

	"github.com/rushteam/reco/core"
)

func TestNewRule_EmptyExpression(t *testing.T) {
	r, err := NewRule("")
	if err != nil {
		t.Fatalf("NewRule(\"\") error = %v", err)
	}
	if r != nil {
		t.Fatal("NewRule(\"\") should return nil rule (filtering disabled)")
	}

	// nil rule passes everything through
	products := []core.Product{{ID: "p1"}}
	out, err := r.Apply(products)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
}

func TestNewRule_CompileError(t *testing.T) {
	if _, err := NewRule("product.price <"); err == nil {
		t.Fatal("NewRule() with invalid expression should fail to compile")
	}
}

func TestRule_Apply(t *testing.T) {
	products := []core.Product{
		{ID: "cheap", Price: 300, Features: map[string]core.FeatureRef{"category": core.RefID("c1")}},
		{ID: "mid", Price: 4000, Features: map[string]core.FeatureRef{"category": core.RefID("c2")}},
		{ID: "pricey", Price: 9000, Features: map[string]core.FeatureRef{"category": core.RefID("c1")}},
	}

	tests := []struct {
		name    string
		expr    string
		wantIDs []string
	}{
		{name: "price bound", expr: "product.price < 5000.0", wantIDs: []string{"cheap", "mid"}},
		{name: "feature value", expr: `product.features.category == "c1"`, wantIDs: []string{"cheap", "pricey"}},
		{name: "conjunction", expr: `product.price > 1000.0 && product.features.category == "c1"`, wantIDs: []string{"pricey"}},
		{name: "keep all", expr: "product.price >= 0.0", wantIDs: []string{"cheap", "mid", "pricey"}},
		{name: "keep none", expr: "product.price < 0.0", wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRule(tt.expr)
			if err != nil {
				t.Fatalf("NewRule(%q) error = %v", tt.expr, err)
			}
			out, err := r.Apply(products)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if len(out) != len(tt.wantIDs) {
				t.Fatalf("len(out) = %d, want %d", len(out), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if out[i].ID != id {
					t.Errorf("out[%d].ID = %q, want %q", i, out[i].ID, id)
				}
			}
		})
	}
}
