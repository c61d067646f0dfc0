package engine

import (
	"context"

	"github.com/rushteam/reco/core"
	"github.com/rushteam/reco/feature"
	"github.com/rushteam/reco/model"
)

// 全局训练的守卫阈值。
const (
	// minTrainingInteractions：单条数据划不出有意义的训练集。
	minTrainingInteractions = 2

	// validationThreshold：行为数达到该值才留 20% 验证集，小数据集全量训练。
	validationThreshold = 5
)

// Train 是全量批训练编排器：拉取所有用户的行为记录，训练全局模型
// 并持久化到 ModelPath。只返回成功与否，绝不向调用方抛错。
//
// 训练特征在行为向量之外追加一个归一化用户索引项 (pos+1)/userCount
// （无用户的行为记为 0），训练目标为行为强度 weight/3。
func (e *Engine) Train(ctx context.Context) bool {
	if err := e.train(ctx); err != nil {
		e.logger.Printf("train: %v", err)
		return false
	}
	e.logger.Printf("train: model training completed and saved to %s", e.cfg.ModelPath)
	return true
}

func (e *Engine) train(ctx context.Context) error {
	interactions, err := e.source.FetchInteractions(ctx, "")
	if err != nil {
		return err
	}
	if len(interactions) < minTrainingInteractions {
		return &fallbackBranch{reason: "insufficient interactions for global training"}
	}

	mapping, err := feature.BuildMapping(ctx, e.source, e.cfg.Features)
	if err != nil {
		return err
	}

	base := e.pre.Vectors(interactions, mapping)
	userIndex := userIndexTable(interactions)
	vectors := make([][]float64, len(base))
	for i := range base {
		vectors[i] = append(base[i], userIndex[interactions[i].UserID])
	}

	e.logger.Printf("train: prepared %d interactions", len(vectors))

	opts := model.DefaultTrainOptions()
	if len(interactions) >= validationThreshold {
		opts.ValidationSplit = 0.2
	}
	scorer, err := e.trainer.Train(vectors, e.pre.Targets(interactions), opts)
	if err != nil {
		return err
	}
	return e.persister.Save(ctx, scorer, e.cfg.ModelPath)
}

// userIndexTable 给出现过的用户按首次出现顺序编号，
// 返回 userID → (pos+1)/userCount；空 userID 恒为 0。
func userIndexTable(interactions []core.Interaction) map[string]float64 {
	order := make([]string, 0)
	seen := make(map[string]struct{})
	for i := range interactions {
		id := interactions[i].UserID
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		order = append(order, id)
	}

	table := make(map[string]float64, len(order)+1)
	for pos, id := range order {
		table[id] = float64(pos+1) / float64(len(order))
	}
	return table
}
