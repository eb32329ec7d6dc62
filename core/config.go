package core

import "time"

// Weights 是多信号打分的权重，四个维度相互独立，可通过配置调整。
type Weights struct {
	Direct float64 `yaml:"direct" json:"direct" koanf:"direct"` // 每次出现在相似作品批次中的加分
	Genre  float64 `yaml:"genre" json:"genre" koanf:"genre"`    // 每个重合类型的加分
	Tag    float64 `yaml:"tag" json:"tag" koanf:"tag"`          // 每个重合标签的加分
	Sim    float64 `yaml:"sim" json:"sim" koanf:"sim"`          // 平均 Jaccard 相似度的系数
}

// DefaultWeights 返回默认权重。
func DefaultWeights() Weights {
	return Weights{
		Direct: 3.0,
		Genre:  1.0,
		Tag:    0.5,
		Sim:    2.0,
	}
}

// 请求参数默认值与范围（范围由调用方校验）。
const (
	DefaultMinScore = 75
	DefaultTopN     = 15

	MinScoreLower = 0
	MinScoreUpper = 100
	TopNLower     = 1
	TopNUpper     = 50
)

// RecallConfig 是召回相关的配置接口，用于提供默认值。
type RecallConfig interface {
	// DefaultMaxConcurrent 返回每个阶段的最大并发拉取数
	DefaultMaxConcurrent() int

	// DefaultTimeout 返回单次拉取的超时时间
	DefaultTimeout() time.Duration
}

// DefaultRecallConfig 是默认的召回配置实现。
type DefaultRecallConfig struct{}

func (c *DefaultRecallConfig) DefaultMaxConcurrent() int {
	return 8
}

func (c *DefaultRecallConfig) DefaultTimeout() time.Duration {
	return 10 * time.Second
}
