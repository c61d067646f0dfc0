package feature

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/reco/core"
)

type catalogSource struct {
	core.DataSource
	catalogs map[string][]core.FeatureValue
	err      error
}

func (s *catalogSource) FetchFeatureValues(_ context.Context, key string) ([]core.FeatureValue, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.catalogs[key], nil
}

func TestNewLookup_RankFollowsCatalogOrder(t *testing.T) {
	lookup := NewLookup([]core.FeatureValue{
		{ID: "c3"}, {ID: "c1"}, {ID: "c2"},
	})

	want := map[string]int{"c3": 1, "c1": 2, "c2": 3}
	for id, rank := range want {
		if got := lookup.Get(id, 0); got != rank {
			t.Errorf("Get(%q) = %d, want %d", id, got, rank)
		}
	}
}

func TestLookup_Get(t *testing.T) {
	lookup := Lookup{"a": 1, "b": 2}

	tests := []struct {
		name     string
		key      string
		fallback int
		want     int
	}{
		{name: "mapped key", key: "b", fallback: 0, want: 2},
		{name: "unmapped key returns fallback", key: "z", fallback: 0, want: 0},
		{name: "unmapped key custom fallback", key: "z", fallback: -1, want: -1},
		{name: "empty key returns fallback", key: "", fallback: 7, want: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lookup.Get(tt.key, tt.fallback); got != tt.want {
				t.Errorf("Get(%q, %d) = %d, want %d", tt.key, tt.fallback, got, tt.want)
			}
		})
	}

	// nil lookup must not panic
	var nilLookup Lookup
	if got := nilLookup.Get("a", 3); got != 3 {
		t.Errorf("nil lookup Get = %d, want 3", got)
	}
}

func TestBuildMapping(t *testing.T) {
	src := &catalogSource{catalogs: map[string][]core.FeatureValue{
		"category": {{ID: "c1"}, {ID: "c2"}},
		"brand":    {{ID: "b1"}},
	}}

	mapping, err := BuildMapping(context.Background(), src, []string{"category", "brand"})
	if err != nil {
		t.Fatalf("BuildMapping() error = %v", err)
	}
	if got := mapping.Rank("category", "c2"); got != 2 {
		t.Errorf("Rank(category, c2) = %d, want 2", got)
	}
	if got := mapping.Rank("brand", "b1"); got != 1 {
		t.Errorf("Rank(brand, b1) = %d, want 1", got)
	}
	if got := mapping.Rank("category", "missing"); got != 0 {
		t.Errorf("Rank(category, missing) = %d, want 0", got)
	}
	if got := mapping.Rank("unknown_key", "c1"); got != 0 {
		t.Errorf("Rank(unknown_key, c1) = %d, want 0", got)
	}
}

func TestBuildMapping_FetchErrorPropagates(t *testing.T) {
	wantErr := errors.New("catalog down")
	src := &catalogSource{err: wantErr}

	_, err := BuildMapping(context.Background(), src, []string{"category"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("BuildMapping() error = %v, want wrapped %v", err, wantErr)
	}
}
