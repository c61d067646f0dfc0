package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// 默认值
const (
	DefaultModelPath      = "models/recommendation.json"
	DefaultLimit          = 10
	DefaultCandidateLimit = 100
)

// Config 是引擎配置（支持 YAML）。
type Config struct {
	// ModelPath 是全局（批量训练）模型工件的持久化位置。
	ModelPath string `yaml:"model_path"`

	// BootstrapModelPath 是请求内懒训练模型的持久化位置。
	// 与 ModelPath 分开，单用户数据训出来的引导模型才不会覆盖全局模型；
	// 为空时默认 "<model_path>.bootstrap"。
	BootstrapModelPath string `yaml:"bootstrap_model_path"`

	// EnableLogging 打开诊断日志。只影响日志输出，绝不影响分数。
	EnableLogging bool `yaml:"enable_logging"`

	// Features 是参与建模的特征维度，顺序决定向量布局与 boost 系数分配。
	Features []string `yaml:"features"`

	// CandidateLimit 是候选拉取上限，<=0 取 100。
	CandidateLimit int `yaml:"candidate_limit"`

	// CandidateRule 是可选的候选过滤 CEL 表达式，如 "product.price < 5000.0"。
	CandidateRule string `yaml:"candidate_rule"`

	// DefaultLimit 是 Recommend 未指定 limit 时的默认条数，<=0 取 10。
	DefaultLimit int `yaml:"default_limit"`
}

// withDefaults 返回补全默认值后的配置副本。
func (c Config) withDefaults() Config {
	if c.ModelPath == "" {
		c.ModelPath = DefaultModelPath
	}
	if c.BootstrapModelPath == "" {
		c.BootstrapModelPath = c.ModelPath + ".bootstrap"
	}
	if c.CandidateLimit <= 0 {
		c.CandidateLimit = DefaultCandidateLimit
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = DefaultLimit
	}
	return c
}

// LoadConfig 从 YAML 文件加载引擎配置。
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
