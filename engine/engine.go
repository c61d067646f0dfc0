// Package engine 是推荐引擎的编排层：校验输入信号、构建用户偏好画像、
// 获取（加载或懒训练）打分模型、候选打分、规则 boost、排序截断，
// 每个分支点都能安全降级到热门兜底。
//
// 对外只有两个操作：
//   - Recommend：生成推荐，绝不向调用方抛错
//   - Train：全量批训练，只返回成功与否
package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/sync/singleflight"

	"github.com/rushteam/reco/core"
	"github.com/rushteam/reco/feast"
	"github.com/rushteam/reco/feature"
	"github.com/rushteam/reco/filter"
	"github.com/rushteam/reco/model"
	"github.com/rushteam/reco/rank"
	"github.com/rushteam/reco/recall"
)

// Engine 是推荐引擎。除持久化的模型工件外没有跨请求状态，
// 单个 Engine 可以被并发使用。
type Engine struct {
	cfg        Config
	source     core.DataSource
	trainer    model.Trainer
	persister  model.Persister
	pre        *feature.Preprocessor
	popular    *recall.Popular
	candidates *recall.Candidates
	booster    *rank.Booster
	rule       *filter.Rule
	enricher   *feast.Enricher
	logger     *log.Logger

	// sf 去重并发的引导训练：同时到达的首批请求只训练一次。
	sf singleflight.Group
}

// Option 配置 Engine 的可选能力。
type Option func(*Engine)

// WithTrainer 替换默认的 MLP 训练器。
func WithTrainer(t model.Trainer) Option {
	return func(e *Engine) { e.trainer = t }
}

// WithPersister 替换默认的文件持久化（如换成 StorePersister）。
func WithPersister(p model.Persister) Option {
	return func(e *Engine) { e.persister = p }
}

// WithLogger 替换默认日志输出。
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithEnricher 启用基于 Feast 的候选特征补全。
func WithEnricher(en *feast.Enricher) Option {
	return func(e *Engine) { e.enricher = en }
}

// New 创建引擎。候选过滤表达式在此编译，非法表达式立刻报错
// 而不是等到第一个请求。
func New(cfg Config, source core.DataSource, opts ...Option) (*Engine, error) {
	cfg = cfg.withDefaults()
	rule, err := filter.NewRule(cfg.CandidateRule)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	e := &Engine{
		cfg:     cfg,
		source:  source,
		pre:     feature.NewPreprocessor(cfg.Features),
		booster: rank.NewBooster(cfg.Features),
		rule:    rule,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.trainer == nil {
		e.trainer = model.NewMLPTrainer()
	}
	if e.persister == nil {
		e.persister = model.FilePersister{}
	}
	if e.logger == nil {
		out := io.Discard
		if cfg.EnableLogging {
			out = os.Stderr
		}
		e.logger = log.New(out, "reco: ", log.LstdFlags)
	}
	e.popular = &recall.Popular{Source: source, Logger: e.logger}
	e.candidates = &recall.Candidates{Source: source, Limit: cfg.CandidateLimit}
	return e, nil
}

// Recommend 为用户生成 Top limit 推荐。limit <= 0 时取配置默认值。
// 保证总是返回可用的推荐列表（兜底也失败时为空列表），绝不向调用方抛错；
// 管道任何一步失败都降级为热门兜底。
func (e *Engine) Recommend(ctx context.Context, userID string, limit int) []core.Recommendation {
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	recs, err := e.recommend(ctx, userID, limit)
	if err != nil {
		e.logger.Printf("recommend %s: %v, falling back to popular products", userID, err)
		return e.popular.Recommend(ctx, limit)
	}
	return recs
}

// fallbackBranch 标记“信号不足”的正常降级分支（不是故障）。
type fallbackBranch struct {
	reason string
}

func (b *fallbackBranch) Error() string { return b.reason }

// recommend 是主管道。返回错误即代表该请求应走兜底。
func (e *Engine) recommend(ctx context.Context, userID string, limit int) ([]core.Recommendation, error) {
	// 1. 用户行为历史：无行为 → 兜底
	interactions, err := e.source.FetchInteractions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch interactions: %w", err)
	}
	if len(interactions) == 0 {
		return nil, &fallbackBranch{reason: "no interactions found"}
	}

	// 2. 偏好画像：整个历史一个取值都解析不出来 → 兜底
	profile := feature.BuildProfile(interactions, e.cfg.Features)
	if !profile.HasValues() {
		return nil, &fallbackBranch{reason: "no valid features in interactions"}
	}

	// 3. rank 映射表 + 行为向量。目录拉取失败由此处上抛，统一降级。
	mapping, err := feature.BuildMapping(ctx, e.source, e.cfg.Features)
	if err != nil {
		return nil, err
	}
	vectors := e.pre.Vectors(interactions, mapping)

	// 4. 模型：优先加载持久化工件，缺失时用该用户自己的数据懒训练
	scorer, err := e.acquireScorer(ctx, vectors, e.pre.Targets(interactions))
	if err != nil {
		return nil, fmt.Errorf("acquire scorer: %w", err)
	}

	// 5. 候选拉取：排除已交互商品，按偏好取值过滤
	excludeIDs := interactedProductIDs(interactions)
	candidates, err := e.candidates.Recall(ctx, excludeIDs, profile.FilterSets(e.cfg.Features))
	if err != nil {
		return nil, err
	}
	if e.rule != nil {
		candidates, err = e.rule.Apply(candidates)
		if err != nil {
			return nil, err
		}
	}
	if len(candidates) == 0 {
		return nil, &fallbackBranch{reason: "no candidate products found"}
	}

	// 6. 可选的 Feast 特征补全，失败不影响主链路
	if err := e.enricher.Enrich(ctx, candidates, e.cfg.Features); err != nil {
		e.logger.Printf("recommend %s: %v (candidates pass through unenriched)", userID, err)
	}

	// 7. 候选向量 + 整批打分
	avgWeight := feature.AverageWeight(interactions, e.pre.Weights)
	matrix := make([][]float64, 0, len(candidates))
	for i := range candidates {
		matrix = append(matrix, e.pre.CandidateVector(&candidates[i], mapping, avgWeight))
	}
	scores, err := scorer.PredictBatch(matrix)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	// 8. 偏好 boost + 稳定降序 + Top limit + 4 位小数
	return e.booster.Rank(candidates, scores, profile, limit), nil
}

// acquireScorer 获取打分模型：
//  1. 先加载全局工件，再加载引导工件
//  2. 工件宽度与当前特征配置不一致时视为过期，按缺失处理
//  3. 都没有时用当前用户的向量懒训练一个引导模型（不含用户索引项），
//     成功后持久化到引导位置，绝不覆盖全局模型
//
// singleflight 保证并发首批请求只触发一次训练。
func (e *Engine) acquireScorer(ctx context.Context, vectors [][]float64, targets []float64) (model.Scorer, error) {
	v, err, _ := e.sf.Do("scorer", func() (interface{}, error) {
		for _, location := range []string{e.cfg.ModelPath, e.cfg.BootstrapModelPath} {
			scorer, err := e.persister.Load(ctx, location)
			if err != nil {
				return nil, err
			}
			if scorer == nil {
				continue
			}
			if scorer.InputDim() != e.pre.Width() {
				e.logger.Printf("scorer at %s has input width %d, current feature config needs %d; treating as stale",
					location, scorer.InputDim(), e.pre.Width())
				continue
			}
			return scorer, nil
		}

		e.logger.Printf("no saved scorer found, training bootstrap model")
		opts := model.DefaultTrainOptions()
		scorer, err := e.trainer.Train(vectors, targets, opts)
		if err != nil {
			return nil, err
		}
		if err := e.persister.Save(ctx, scorer, e.cfg.BootstrapModelPath); err != nil {
			// 训练成功但持久化失败：本请求仍可用，下个请求会重训
			e.logger.Printf("save bootstrap scorer: %v", err)
		}
		return scorer, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(model.Scorer), nil
}

// interactedProductIDs 返回去重后的已交互商品 ID，保持首次出现顺序。
func interactedProductIDs(interactions []core.Interaction) []string {
	seen := make(map[string]struct{}, len(interactions))
	out := make([]string, 0, len(interactions))
	for i := range interactions {
		id := interactions[i].ProductID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
