package core

import "context"

// CandidateQuery 是候选商品的查询条件。
type CandidateQuery struct {
	// ExcludeIDs 是必须排除的商品 ID（用户已交互过的商品）。
	ExcludeIDs []string

	// FeatureFilters 按特征维度限定候选的取值 ID 集合。
	// 跨维度的 AND/OR 语义由数据源实现自行约定。
	FeatureFilters map[string][]string

	// Limit 是最大返回数量。
	Limit int
}

// DataSource 是数据访问的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store 等）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//
// 引擎依赖的契约：
//   - FetchInteractions(ctx, "") 返回全量行为记录（训练用）；
//     userID 非空时按用户过滤
//   - FetchFeatureValues 返回某特征维度的完整取值目录，
//     返回顺序决定 rank
//   - FetchCandidateProducts 必须遵守 ExcludeIDs
//   - FetchPopularProducts 的排序由业务自行定义，但需稳定
type DataSource interface {
	FetchInteractions(ctx context.Context, userID string) ([]Interaction, error)
	FetchFeatureValues(ctx context.Context, featureKey string) ([]FeatureValue, error)
	FetchCandidateProducts(ctx context.Context, q CandidateQuery) ([]Product, error)
	FetchPopularProducts(ctx context.Context, limit int) ([]Product, error)
}
