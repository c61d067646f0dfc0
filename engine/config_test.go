package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig_WithDefaults(t *testing.T) {
	got := Config{}.withDefaults()
	if got.ModelPath != DefaultModelPath {
		t.Errorf("ModelPath = %q, want %q", got.ModelPath, DefaultModelPath)
	}
	if got.BootstrapModelPath != DefaultModelPath+".bootstrap" {
		t.Errorf("BootstrapModelPath = %q, want %q", got.BootstrapModelPath, DefaultModelPath+".bootstrap")
	}
	if got.CandidateLimit != DefaultCandidateLimit {
		t.Errorf("CandidateLimit = %d, want %d", got.CandidateLimit, DefaultCandidateLimit)
	}
	if got.DefaultLimit != DefaultLimit {
		t.Errorf("DefaultLimit = %d, want %d", got.DefaultLimit, DefaultLimit)
	}

	custom := Config{
		ModelPath:          "m.json",
		BootstrapModelPath: "boot.json",
		CandidateLimit:     20,
		DefaultLimit:       5,
	}.withDefaults()
	if custom.BootstrapModelPath != "boot.json" || custom.CandidateLimit != 20 || custom.DefaultLimit != 5 {
		t.Errorf("explicit values overwritten: %+v", custom)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reco.yaml")
	data := `model_path: models/prod.json
enable_logging: true
features:
  - category
  - brand
candidate_limit: 50
candidate_rule: 'product.price < 5000.0'
default_limit: 8
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.ModelPath != "models/prod.json" || !cfg.EnableLogging {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Features) != 2 || cfg.Features[0] != "category" || cfg.Features[1] != "brand" {
		t.Errorf("Features = %v, want [category brand]", cfg.Features)
	}
	if cfg.CandidateLimit != 50 || cfg.DefaultLimit != 8 {
		t.Errorf("limits = %d/%d, want 50/8", cfg.CandidateLimit, cfg.DefaultLimit)
	}
	if cfg.CandidateRule != "product.price < 5000.0" {
		t.Errorf("CandidateRule = %q", cfg.CandidateRule)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig() on missing file should fail")
	}
}
