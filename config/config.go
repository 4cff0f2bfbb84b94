package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 是决策核心的装配配置。
//
// YAML 示例：
//
//	bandit:
//	  alpha: 1.0
//	  lambda: 1.0
//	  seed: 0
//	recall:
//	  song_endpoint: "http://recommender:8000/songs/similar"
//	  movie_endpoint: "http://recommender:8000/movies/hybrid"
//	  top_k: 20
//	  timeout_ms: 2000
//	store:
//	  backend: "redis"   # memory / redis / file
//	  addr: "127.0.0.1:6379"
//	  db: 0
//	  dir: "./models"    # file 后端的目录
//	feast:
//	  enabled: false
//	  host: "127.0.0.1"
//	  port: 6565
//	  project: "habits"
//	rules:
//	  - 'candidate.features.popularity >= 0.01'
//	fallback:
//	  content_type: "song"
//	  content_id: "default-playlist"
type Config struct {
	Bandit struct {
		Alpha  float64 `yaml:"alpha"`
		Lambda float64 `yaml:"lambda"`
		Seed   int64   `yaml:"seed"`
	} `yaml:"bandit"`

	Recall struct {
		SongEndpoint  string `yaml:"song_endpoint"`
		MovieEndpoint string `yaml:"movie_endpoint"`
		TopK          int    `yaml:"top_k"`
		TimeoutMS     int    `yaml:"timeout_ms"`
	} `yaml:"recall"`

	Store struct {
		Backend string `yaml:"backend"` // memory / redis / file
		Addr    string `yaml:"addr"`
		DB      int    `yaml:"db"`
		Dir     string `yaml:"dir"`

		// Prefix 是命名空间前缀，叠加在臂参数与台账各自的默认
		// key 前缀之上（多应用共用一个 Redis 时隔离用）；
		// file 后端的臂参数按目录寻址，不受此字段影响
		Prefix string `yaml:"prefix"`
	} `yaml:"store"`

	Feast struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
		Project string `yaml:"project"`
	} `yaml:"feast"`

	// Rules 是 CEL 候选准入规则（全部满足才保留）
	Rules []string `yaml:"rules"`

	Fallback struct {
		ContentType string `yaml:"content_type"`
		ContentID   string `yaml:"content_id"`
	} `yaml:"fallback"`
}

// Default 返回带默认值的配置。
func Default() *Config {
	cfg := &Config{}
	cfg.Bandit.Alpha = 1.0
	cfg.Bandit.Lambda = 1.0
	cfg.Recall.TopK = 20
	cfg.Recall.TimeoutMS = 2000
	cfg.Store.Backend = "memory"
	return cfg
}

// Load 从 YAML 文件加载配置，未出现的字段保持默认值。
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse 从 YAML 内容解析配置。
func Parse(raw []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if cfg.Bandit.Alpha <= 0 {
		return nil, fmt.Errorf("config: bandit.alpha must be > 0, got %v", cfg.Bandit.Alpha)
	}
	if cfg.Bandit.Lambda <= 0 {
		return nil, fmt.Errorf("config: bandit.lambda must be > 0, got %v", cfg.Bandit.Lambda)
	}
	switch cfg.Store.Backend {
	case "memory", "redis", "file":
	default:
		return nil, fmt.Errorf("config: unknown store backend %q", cfg.Store.Backend)
	}
	return cfg, nil
}
