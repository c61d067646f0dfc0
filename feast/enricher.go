// Package feast 提供基于 Feast Feature Store 的候选特征补全。
//
// 业务数据里候选商品的特征字段可能是稀疏的（比如商品刚上架，
// 本地库还没同步到类目/品牌）。Enricher 在候选向量构建之前
// 从 Feast 在线存储按商品 ID 批量补齐缺失的配置特征取值。
//
// 补全是尽力而为的：Feast 不可用时候选原样通过，不影响主链路。
//
// 参考：https://github.com/feast-dev/feast
package feast

import (
	"context"
	"fmt"

	feastsdk "github.com/feast-dev/feast/sdk/go"

	"github.com/rushteam/reco/core"
)

// Provider 是在线特征获取的最小接口，便于测试时注入 fake。
type Provider interface {
	// FeatureValues 按商品 ID 批量获取各配置特征维度的取值 ID。
	// 返回 map[productID]map[featureKey]valueID；缺失的条目直接省略。
	FeatureValues(ctx context.Context, productIDs []string, featureKeys []string) (map[string]map[string]string, error)
}

// Enricher 用 Provider 补全候选商品缺失的特征取值。
type Enricher struct {
	Provider Provider
}

// Enrich 就地补全：仅填充候选上缺失的配置特征，已有取值不覆盖。
// Provider 失败时返回错误，由调用方决定是否忽略。
func (e *Enricher) Enrich(ctx context.Context, products []core.Product, featureKeys []string) error {
	if e == nil || e.Provider == nil || len(products) == 0 {
		return nil
	}
	missing := make([]string, 0, len(products))
	for i := range products {
		for _, key := range featureKeys {
			if products[i].FeatureID(key) == "" {
				missing = append(missing, products[i].ID)
				break
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	values, err := e.Provider.FeatureValues(ctx, missing, featureKeys)
	if err != nil {
		return fmt.Errorf("feast enrich: %w", err)
	}

	for i := range products {
		fetched, ok := values[products[i].ID]
		if !ok {
			continue
		}
		for _, key := range featureKeys {
			if products[i].FeatureID(key) != "" {
				continue
			}
			id, ok := fetched[key]
			if !ok || id == "" {
				continue
			}
			if products[i].Features == nil {
				products[i].Features = make(map[string]core.FeatureRef, len(featureKeys))
			}
			products[i].Features[key] = core.RefID(id)
		}
	}
	return nil
}

// GrpcProvider 是基于官方 Feast Go SDK 的 Provider 实现。
//
// 约定：特征以 "<featureView>:<featureKey>" 注册，实体键为 EntityKey
// （默认 "product_id"），取值 ID 以字符串特征存储。
type GrpcProvider struct {
	client      *feastsdk.GrpcClient
	Project     string
	FeatureView string
	EntityKey   string
}

// NewGrpcProvider 创建 Feast gRPC Provider。port 为 0 时用默认端口 6565。
func NewGrpcProvider(host string, port int, project, featureView string) (*GrpcProvider, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("feast grpc client: %w", err)
	}
	return &GrpcProvider{
		client:      client,
		Project:     project,
		FeatureView: featureView,
		EntityKey:   "product_id",
	}, nil
}

// FeatureValues 实现 Provider。
func (p *GrpcProvider) FeatureValues(ctx context.Context, productIDs []string, featureKeys []string) (map[string]map[string]string, error) {
	if len(productIDs) == 0 || len(featureKeys) == 0 {
		return map[string]map[string]string{}, nil
	}

	features := make([]string, 0, len(featureKeys))
	for _, key := range featureKeys {
		features = append(features, p.FeatureView+":"+key)
	}
	entities := make([]feastsdk.Row, 0, len(productIDs))
	for _, id := range productIDs {
		entities = append(entities, feastsdk.Row{p.EntityKey: feastsdk.StrVal(id)})
	}

	resp, err := p.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: features,
		Entities: entities,
		Project:  p.Project,
	})
	if err != nil {
		return nil, fmt.Errorf("feast get online features: %w", err)
	}

	rows := resp.Rows()
	if len(rows) != len(productIDs) {
		return nil, fmt.Errorf("feast response row count mismatch: expected %d, got %d", len(productIDs), len(rows))
	}

	out := make(map[string]map[string]string, len(productIDs))
	for i, row := range rows {
		values := make(map[string]string, len(featureKeys))
		for j, key := range featureKeys {
			val, ok := row[features[j]]
			if !ok || val == nil {
				continue
			}
			if s := val.GetStringVal(); s != "" {
				values[key] = s
			}
		}
		if len(values) > 0 {
			out[productIDs[i]] = values
		}
	}
	return out, nil
}
