package model

import (
	"fmt"

	"github.com/rushteam/reco/core"
)

// Scorer 是打分模型的最小抽象：输入定宽特征向量，输出倾向性分数。
// 引擎把任何失败都视为“模型不可用”并降级到兜底，不向上传播。
type Scorer interface {
	Name() string

	// InputDim 返回训练时锁定的向量宽度。
	InputDim() int

	// PredictBatch 对整批候选一次性打分，逐行对应。
	// 输入宽度与训练宽度不一致时必须返回可识别的维度错误，
	// 而不是静默产出错误长度的结果。
	PredictBatch(features [][]float64) ([]float64, error)
}

// Trainer 负责从 (特征矩阵, 目标) 训练出一个 Scorer。
type Trainer interface {
	Train(features [][]float64, targets []float64, opts TrainOptions) (Scorer, error)
}

// TrainOptions 是训练超参数。
type TrainOptions struct {
	Epochs          int
	BatchSize       int
	LearningRate    float64
	ValidationSplit float64 // 0 表示不留验证集
	Shuffle         bool
	Seed            int64
}

// DefaultTrainOptions 返回默认超参数。
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Epochs:       10,
		BatchSize:    32,
		LearningRate: 0.001,
		Shuffle:      true,
		Seed:         1,
	}
}

// ErrNoTrainingData 表示训练集为空，训练无法进行。
var ErrNoTrainingData = core.NewDomainError(core.ModuleModel, core.ErrorCodeNoTrainingData, "model: no training data")

// NewDimensionMismatch 构造维度不一致错误。
func NewDimensionMismatch(got, want int) error {
	return core.NewDomainError(core.ModuleModel, core.ErrorCodeDimensionMismatch,
		fmt.Sprintf("model: feature width %d does not match trained width %d", got, want))
}

// IsDimensionMismatch 检查错误是否为向量宽度不一致
func IsDimensionMismatch(err error) bool {
	domainErr := core.GetDomainError(err)
	return domainErr != nil && domainErr.Code == core.ErrorCodeDimensionMismatch
}
