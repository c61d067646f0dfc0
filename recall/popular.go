package recall

import (
	"context"
	"log"

	"github.com/rushteam/reco/core"
)

// Popular 是兜底召回：始终可用的热门商品列表。
// 管道任何一个分支失败都落到这里，因此它自己绝不允许失败：
// 拉取出错时吞掉错误返回空列表。
type Popular struct {
	Source core.DataSource

	// Logger 可选，仅用于诊断输出。
	Logger *log.Logger
}

// Recommend 拉取 2N 个热门商品，取前 N 个包装为
// 固定分 1.0、说明为 "Popular Choice" 的推荐。
func (p *Popular) Recommend(ctx context.Context, limit int) []core.Recommendation {
	products, err := p.Source.FetchPopularProducts(ctx, limit*2)
	if err != nil {
		if p.Logger != nil {
			p.Logger.Printf("recall: fetch popular products: %v", err)
		}
		return []core.Recommendation{}
	}
	if len(products) > limit {
		products = products[:limit]
	}
	out := make([]core.Recommendation, 0, len(products))
	for _, product := range products {
		out = append(out, core.Recommendation{
			Product: product,
			Score:   1.0,
			Reason:  core.ReasonPopular,
		})
	}
	return out
}
