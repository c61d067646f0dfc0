// Package reco 是一个商品推荐引擎（Recommendation Kit）。
//
// 设计要点：
// - Fallback-first: 推荐管道任何一步失败都降级到热门兜底，Recommend 绝不抛错
// - 领域接口在 core: 实现 core.DataSource 即可接入任意数据后端
// - 模型可替换: 默认本地 MLP，训练器与持久化均可通过 Option 注入
package reco

import (
	"github.com/rushteam/reco/core"
	"github.com/rushteam/reco/engine"
)

// 轻量 facade：便于用户直接 import "reco" 使用核心抽象。
type Engine = engine.Engine
type Config = engine.Config
type Option = engine.Option

type Product = core.Product
type Interaction = core.Interaction
type Recommendation = core.Recommendation
type DataSource = core.DataSource

// New 创建推荐引擎，等同于 engine.New。
func New(cfg Config, source DataSource, opts ...Option) (*Engine, error) {
	return engine.New(cfg, source, opts...)
}
