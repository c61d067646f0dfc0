package feature

import (
	"context"
	"fmt"

	"github.com/rushteam/reco/core"
)

// Lookup 是单个特征维度的取值 ID → rank 表。
// rank 为取值在目录中的 1-based 位置，0 保留给未知/缺失取值。
type Lookup map[string]int

// Mapping 是所有配置特征维度的 rank 表集合。
// 请求级生命周期：每次管道调用基于目录当前状态重建，不跨请求缓存，
// 目录变更因此总能被反映，代价是重复调用会重复 fetch+build。
type Mapping map[string]Lookup

// NewLookup 按目录顺序构建 rank 表：rank = 位置 + 1。
func NewLookup(values []core.FeatureValue) Lookup {
	lookup := make(Lookup, len(values))
	for i, v := range values {
		lookup[v.ID] = i + 1
	}
	return lookup
}

// Get 返回 key 对应的 rank；key 为空或未映射时返回 fallback。
// 永不报错，这是映射访问的硬性契约。
func (l Lookup) Get(key string, fallback int) int {
	if key == "" {
		return fallback
	}
	if rank, ok := l[key]; ok {
		return rank
	}
	return fallback
}

// Rank 返回某特征维度上某取值的 rank，维度或取值缺失时为 0。
func (m Mapping) Rank(featureKey, valueID string) int {
	return m[featureKey].Get(valueID, 0)
}

// BuildMapping 为每个配置的特征维度拉取完整目录并构建 rank 表。
// 目录拉取失败时错误原样上抛（不在此处重试），由调用方
// （推荐/训练编排器）负责降级。
func BuildMapping(ctx context.Context, source core.DataSource, featureKeys []string) (Mapping, error) {
	mapping := make(Mapping, len(featureKeys))
	for _, key := range featureKeys {
		values, err := source.FetchFeatureValues(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("fetch feature values %q: %w", key, err)
		}
		mapping[key] = NewLookup(values)
	}
	return mapping, nil
}
