package config

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	raw := []byte(`
bandit:
  alpha: 0.5
  lambda: 2.0
  seed: 42
recall:
  song_endpoint: "http://recommender:8000/songs/similar"
  movie_endpoint: "http://recommender:8000/movies/hybrid"
  top_k: 10
  timeout_ms: 800
store:
  backend: "file"
  dir: "./models"
rules:
  - 'candidate.features.popularity >= 0.01'
fallback:
  content_type: "song"
  content_id: "default-playlist"
`)

	cfg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Bandit.Alpha != 0.5 || cfg.Bandit.Lambda != 2.0 || cfg.Bandit.Seed != 42 {
		t.Errorf("bandit section = %+v, want alpha=0.5 lambda=2 seed=42", cfg.Bandit)
	}
	if cfg.Recall.TopK != 10 || cfg.Recall.TimeoutMS != 800 {
		t.Errorf("recall section = %+v, want top_k=10 timeout_ms=800", cfg.Recall)
	}
	if cfg.Store.Backend != "file" || cfg.Store.Dir != "./models" {
		t.Errorf("store section = %+v, want file backend", cfg.Store)
	}
	if len(cfg.Rules) != 1 {
		t.Errorf("rules = %v, want one rule", cfg.Rules)
	}
	if cfg.Fallback.ContentID != "default-playlist" {
		t.Errorf("fallback = %+v, want default-playlist", cfg.Fallback)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`recall: {song_endpoint: "http://x/songs"}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Bandit.Alpha != 1.0 || cfg.Bandit.Lambda != 1.0 {
		t.Errorf("bandit defaults = %+v, want alpha=1 lambda=1", cfg.Bandit)
	}
	if cfg.Recall.TopK != 20 || cfg.Recall.TimeoutMS != 2000 {
		t.Errorf("recall defaults = %+v, want top_k=20 timeout_ms=2000", cfg.Recall)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("store backend = %q, want memory", cfg.Store.Backend)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"non-positive alpha", "bandit: {alpha: 0}", "alpha"},
		{"non-positive lambda", "bandit: {lambda: -1}", "lambda"},
		{"unknown backend", "store: {backend: etcd}", "backend"},
		{"broken yaml", "store: [", "yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			if err == nil {
				t.Fatal("Parse() error = nil, want failure")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestKeyPrefixes(t *testing.T) {
	arm, ledger := keyPrefixes("")
	if arm != "" || ledger != "" {
		t.Errorf("keyPrefixes(\"\") = (%q, %q), want defaults via empty strings", arm, ledger)
	}

	// 命名空间同时作用于臂参数与台账两类 key
	arm, ledger = keyPrefixes("appA:")
	if arm != "appA:bandit:arm:" {
		t.Errorf("arm prefix = %q, want %q", arm, "appA:bandit:arm:")
	}
	if ledger != "appA:bandit:served:" {
		t.Errorf("ledger prefix = %q, want %q", ledger, "appA:bandit:served:")
	}
}

func TestBuild_MemoryBackend(t *testing.T) {
	cfg := Default()
	cfg.Recall.SongEndpoint = "http://recommender:8000/songs/similar"
	cfg.Rules = []string{`candidate.type == "song"`}
	cfg.Fallback.ContentType = "song"
	cfg.Fallback.ContentID = "default-playlist"

	if _, err := Build(cfg); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
}

func TestBuild_RequiresRecallEndpoint(t *testing.T) {
	if _, err := Build(Default()); err == nil {
		t.Fatal("Build() without endpoints: error = nil, want failure")
	}
}

func TestBuild_RejectsBrokenRule(t *testing.T) {
	cfg := Default()
	cfg.Recall.SongEndpoint = "http://x/songs"
	cfg.Rules = []string{`candidate.type ==`}
	if _, err := Build(cfg); err == nil {
		t.Fatal("Build() with broken rule: error = nil, want compile failure")
	}
}
