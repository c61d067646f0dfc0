package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rushteam/reco/core"
)

func globalSource() *fakeSource {
	src := baseSource()
	src.interactions[""] = []core.Interaction{
		{ProductID: "p1", Type: core.InteractionOrder, Price: 5000, UserID: "u1",
			Features: map[string]core.FeatureRef{"category": core.RefID("c1")}},
		{ProductID: "p2", Type: core.InteractionWishlist, Price: 4000, UserID: "u1",
			Features: map[string]core.FeatureRef{"category": core.RefID("c1")}},
		{ProductID: "p3", Type: core.InteractionCart, Price: 6000, UserID: "u2",
			Features: map[string]core.FeatureRef{"category": core.RefID("c2"), "brand": core.RefID("b2")}},
		{ProductID: "p4", Type: core.InteractionOrder, Price: 300, UserID: "u2",
			Features: map[string]core.FeatureRef{"brand": core.RefID("b1")}},
		{ProductID: "p5", Type: core.InteractionOrder, Price: 9000, UserID: "",
			Features: map[string]core.FeatureRef{"category": core.RefID("c3")}},
	}
	return src
}

func TestTrain_GuardOnInsufficientInteractions(t *testing.T) {
	src := baseSource()
	src.interactions[""] = []core.Interaction{
		{ProductID: "p1", Type: core.InteractionOrder, Price: 5000, UserID: "u1",
			Features: map[string]core.FeatureRef{"category": core.RefID("c1")}},
	}
	trainer := &fakeTrainer{}
	persister := newMapPersister()
	e := newTestEngine(t, twoKeyConfig(), src, WithTrainer(trainer), WithPersister(persister))

	if e.Train(context.Background()) {
		t.Fatal("Train() = true with a single interaction, want false")
	}
	if trainer.calls != 0 {
		t.Errorf("trainer.calls = %d, want 0", trainer.calls)
	}
	if len(persister.scorers) != 0 {
		t.Errorf("persisted %d artifacts, want none", len(persister.scorers))
	}
}

func TestTrain_PersistsGlobalModel(t *testing.T) {
	src := globalSource()
	trainer := &fakeTrainer{}
	persister := newMapPersister()
	e := newTestEngine(t, twoKeyConfig(), src, WithTrainer(trainer), WithPersister(persister))

	if !e.Train(context.Background()) {
		t.Fatal("Train() = false, want true")
	}
	if trainer.calls != 1 {
		t.Fatalf("trainer.calls = %d, want 1", trainer.calls)
	}
	if persister.scorers["global.json"] == nil {
		t.Error("global model not persisted to model path")
	}
	if persister.scorers["bootstrap.json"] != nil {
		t.Error("global training must not write the bootstrap path")
	}
}

func TestTrain_VectorsCarryUserIndex(t *testing.T) {
	src := globalSource()
	trainer := &fakeTrainer{}
	e := newTestEngine(t, twoKeyConfig(), src, WithTrainer(trainer), WithPersister(newMapPersister()))

	if !e.Train(context.Background()) {
		t.Fatal("Train() = false, want true")
	}
	if len(trainer.lastX) != 5 {
		t.Fatalf("trained on %d rows, want 5", len(trainer.lastX))
	}
	// 2 feature keys + type weight + price + user index
	wantWidth := 5
	for i, row := range trainer.lastX {
		if len(row) != wantWidth {
			t.Fatalf("row %d width = %d, want %d", i, len(row), wantWidth)
		}
	}
	// users numbered by first appearance: u1 -> 1/2, u2 -> 2/2, anonymous -> 0
	wantIndex := []float64{0.5, 0.5, 1.0, 1.0, 0}
	for i, want := range wantIndex {
		if got := trainer.lastX[i][wantWidth-1]; got != want {
			t.Errorf("row %d user index = %v, want %v", i, got, want)
		}
	}
}

func TestTrain_TargetsAreWeightThirds(t *testing.T) {
	src := globalSource()
	trainer := &fakeTrainer{}
	e := newTestEngine(t, twoKeyConfig(), src, WithTrainer(trainer), WithPersister(newMapPersister()))

	if !e.Train(context.Background()) {
		t.Fatal("Train() = false, want true")
	}
	// order 3.0, wishlist 2.0, cart 1.5, each over 3
	want := []float64{1.0, 2.0 / 3, 0.5, 1.0, 1.0}
	if len(trainer.lastY) != len(want) {
		t.Fatalf("len(targets) = %d, want %d", len(trainer.lastY), len(want))
	}
	for i := range want {
		if math.Abs(trainer.lastY[i]-want[i]) > 1e-9 {
			t.Errorf("target[%d] = %v, want %v", i, trainer.lastY[i], want[i])
		}
	}
}

func TestTrain_ValidationSplitThreshold(t *testing.T) {
	tests := []struct {
		name      string
		rows      int
		wantSplit float64
	}{
		{name: "five rows keep a validation set", rows: 5, wantSplit: 0.2},
		{name: "four rows train on everything", rows: 4, wantSplit: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := globalSource()
			src.interactions[""] = src.interactions[""][:tt.rows]
			trainer := &fakeTrainer{}
			e := newTestEngine(t, twoKeyConfig(), src, WithTrainer(trainer), WithPersister(newMapPersister()))

			if !e.Train(context.Background()) {
				t.Fatal("Train() = false, want true")
			}
			if trainer.lastOpt.ValidationSplit != tt.wantSplit {
				t.Errorf("ValidationSplit = %v, want %v", trainer.lastOpt.ValidationSplit, tt.wantSplit)
			}
		})
	}
}

func TestTrain_FalseOnTrainerError(t *testing.T) {
	src := globalSource()
	persister := newMapPersister()
	e := newTestEngine(t, twoKeyConfig(), src,
		WithTrainer(&fakeTrainer{err: errors.New("diverged")}),
		WithPersister(persister))

	if e.Train(context.Background()) {
		t.Fatal("Train() = true on trainer failure, want false")
	}
	if len(persister.scorers) != 0 {
		t.Errorf("persisted %d artifacts after failed training, want none", len(persister.scorers))
	}
}

func TestTrain_FalseOnPersistError(t *testing.T) {
	src := globalSource()
	persister := newMapPersister()
	persister.saveErr = errors.New("disk full")
	e := newTestEngine(t, twoKeyConfig(), src, WithTrainer(&fakeTrainer{}), WithPersister(persister))

	if e.Train(context.Background()) {
		t.Fatal("Train() = true when persistence fails, want false")
	}
}

func TestTrain_FalseOnFetchError(t *testing.T) {
	src := globalSource()
	src.interactionsErr = errors.New("source down")
	e := newTestEngine(t, twoKeyConfig(), src, WithTrainer(&fakeTrainer{}), WithPersister(newMapPersister()))

	if e.Train(context.Background()) {
		t.Fatal("Train() = true when the source is down, want false")
	}
}
