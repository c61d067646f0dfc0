package rank

import (
	"math"
	"sort"

	"github.com/rushteam/reco/core"
	"github.com/rushteam/reco/feature"
)

// 固定的偏好 boost 系数：首个配置特征维度权重最高，其余维度次之。
// 特征重要性是显式按配置位置指定的，不做学习。
const (
	PrimaryBoost   = 0.5
	SecondaryBoost = 0.3
)

// Booster 把模型分数与用户偏好画像结合：候选命中用户偏好取值时，
// 分数乘以 1 + (count/total) * boostFactor。
type Booster struct {
	// Keys 是配置的特征维度，顺序决定各维度的 boost 系数。
	Keys []string

	Primary   float64
	Secondary float64
}

// NewBooster 创建默认系数的 Booster。
func NewBooster(featureKeys []string) *Booster {
	return &Booster{
		Keys:      featureKeys,
		Primary:   PrimaryBoost,
		Secondary: SecondaryBoost,
	}
}

// factor 返回第 idx 个配置维度的 boost 系数。
func (b *Booster) factor(idx int) float64 {
	if idx == 0 {
		return b.Primary
	}
	return b.Secondary
}

// Boost 返回单个候选的偏好乘数。
func (b *Booster) Boost(product *core.Product, profile *feature.Profile) float64 {
	multiplier := 1.0
	if profile == nil || profile.Total == 0 {
		return multiplier
	}
	for idx, key := range b.Keys {
		id := product.FeatureID(key)
		if id == "" {
			continue
		}
		count := profile.Count(key, id)
		if count == 0 {
			continue
		}
		multiplier *= 1 + float64(count)/float64(profile.Total)*b.factor(idx)
	}
	return multiplier
}

// Rank 应用 boost、按分数降序稳定排序（同分保持候选拉取顺序）、
// 截断 Top limit 并把分数圆整到 4 位小数。
func (b *Booster) Rank(products []core.Product, scores []float64, profile *feature.Profile, limit int) []core.Recommendation {
	out := make([]core.Recommendation, 0, len(products))
	for i := range products {
		out = append(out, core.Recommendation{
			Product: products[i],
			Score:   scores[i] * b.Boost(&products[i], profile),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Score = math.Round(out[i].Score*10000) / 10000
	}
	return out
}
