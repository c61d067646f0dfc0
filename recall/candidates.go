package recall

import (
	"context"
	"fmt"

	"github.com/rushteam/reco/core"
)

// DefaultCandidateLimit 是候选拉取的默认上限。
const DefaultCandidateLimit = 100

// Candidates 是主召回：按用户偏好过滤、排除已交互商品的候选拉取。
type Candidates struct {
	Source core.DataSource

	// Limit 是最大候选数，<=0 时取 DefaultCandidateLimit。
	Limit int
}

// Recall 拉取候选。排除语义由数据源保证；零候选不是错误，
// 由编排器决定是否降级。
func (c *Candidates) Recall(ctx context.Context, excludeIDs []string, featureFilters map[string][]string) ([]core.Product, error) {
	limit := c.Limit
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	products, err := c.Source.FetchCandidateProducts(ctx, core.CandidateQuery{
		ExcludeIDs:     excludeIDs,
		FeatureFilters: featureFilters,
		Limit:          limit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	return products, nil
}
