package rank

import (
	"math"
	"testing"

	"github.com/rushteam/reco/core"
	"github.com/rushteam/reco/feature"
)

func profileFrom(t *testing.T, keys []string, interactions []core.Interaction) *feature.Profile {
	t.Helper()
	return feature.BuildProfile(interactions, keys)
}

func TestBooster_Boost(t *testing.T) {
	keys := []string{"category", "brand"}
	// 4 interactions: category c1 seen 2x, brand b1 seen 1x
	interactions := []core.Interaction{
		{Features: map[string]core.FeatureRef{"category": core.RefID("c1")}},
		{Features: map[string]core.FeatureRef{"category": core.RefID("c1")}},
		{Features: map[string]core.FeatureRef{"category": core.RefID("c2"), "brand": core.RefID("b1")}},
		{Features: map[string]core.FeatureRef{"category": core.RefID("c3")}},
	}
	profile := profileFrom(t, keys, interactions)
	b := NewBooster(keys)

	tests := []struct {
		name    string
		product core.Product
		want    float64
	}{
		{
			name:    "primary key 2 of 4: 1 + (2/4)*0.5",
			product: core.Product{ID: "x", Features: map[string]core.FeatureRef{"category": core.RefID("c1")}},
			want:    1.25,
		},
		{
			name:    "secondary key 1 of 4: 1 + (1/4)*0.3",
			product: core.Product{ID: "y", Features: map[string]core.FeatureRef{"brand": core.RefID("b1")}},
			want:    1.075,
		},
		{
			name: "both keys multiply",
			product: core.Product{ID: "z", Features: map[string]core.FeatureRef{
				"category": core.RefID("c1"), "brand": core.RefID("b1"),
			}},
			want: 1.25 * 1.075,
		},
		{
			name:    "no preferred values",
			product: core.Product{ID: "w", Features: map[string]core.FeatureRef{"category": core.RefID("c9")}},
			want:    1.0,
		},
		{
			name:    "no features at all",
			product: core.Product{ID: "v"},
			want:    1.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.Boost(&tt.product, profile)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Boost() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBooster_Rank(t *testing.T) {
	keys := []string{"category"}
	profile := profileFrom(t, keys, []core.Interaction{
		{Features: map[string]core.FeatureRef{"category": core.RefID("c1")}},
		{Features: map[string]core.FeatureRef{"category": core.RefID("c2")}},
	})
	products := []core.Product{
		{ID: "a", Features: map[string]core.FeatureRef{"category": core.RefID("c9")}},
		{ID: "b", Features: map[string]core.FeatureRef{"category": core.RefID("c1")}},
		{ID: "c", Features: map[string]core.FeatureRef{"category": core.RefID("c9")}},
	}
	// b gets boosted: 0.4 * (1 + 0.5*0.5) = 0.5
	scores := []float64{0.4, 0.4, 0.3}

	recs := NewBooster(keys).Rank(products, scores, profile, 2)
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}
	if recs[0].Product.ID != "b" {
		t.Errorf("recs[0] = %s, want boosted b first", recs[0].Product.ID)
	}
	if recs[0].Score != 0.5 {
		t.Errorf("recs[0].Score = %v, want 0.5", recs[0].Score)
	}
	if recs[1].Product.ID != "a" {
		t.Errorf("recs[1] = %s, want a (0.4) ahead of c (0.3)", recs[1].Product.ID)
	}
}

func TestBooster_RankStableOnTies(t *testing.T) {
	products := []core.Product{{ID: "first"}, {ID: "second"}, {ID: "third"}}
	scores := []float64{0.5, 0.5, 0.5}

	recs := NewBooster(nil).Rank(products, scores, nil, 10)
	want := []string{"first", "second", "third"}
	for i, id := range want {
		if recs[i].Product.ID != id {
			t.Errorf("recs[%d] = %s, want %s (fetch order preserved on ties)", i, recs[i].Product.ID, id)
		}
	}
}

func TestBooster_RankRoundsToFourDecimals(t *testing.T) {
	products := []core.Product{{ID: "a"}}
	recs := NewBooster(nil).Rank(products, []float64{0.123456789}, nil, 10)
	if recs[0].Score != 0.1235 {
		t.Errorf("Score = %v, want 0.1235", recs[0].Score)
	}
}
