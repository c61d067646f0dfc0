package feature

import "github.com/rushteam/reco/core"

// 价格归一化区间。低于 minPrice 钳到 0，高于 maxPrice 钳到 1。
const (
	minPrice = 100.0
	maxPrice = 10000.0
)

// rankScale 是 rank 的定点压缩因子：rank/100 把目录位置压到有界区间，
// 前提是目录规模不超过几百条。这是刻意的有损压缩，不是学习到的 embedding。
const rankScale = 100.0

// weightScale 是行为权重的归一化因子（最大权重 order=3.0）。
const weightScale = 3.0

// Preprocessor 把行为记录转换为定宽数值特征向量。
//
// 向量布局（训练/推理两侧必须逐位一致，这是管道的核心不变量）：
//
//	[rank(key_0)/100, ..., rank(key_k-1)/100, weight/3, priceNorm]
//
// 全局训练在此基础上再追加一个用户索引项（见 engine.Train）。
type Preprocessor struct {
	// Keys 是配置的特征维度，顺序决定向量布局与 boost 权重分配。
	Keys []string

	// Weights 是行为类型权重表，显式持有，不做包级可变状态。
	Weights core.InteractionWeights
}

// NewPreprocessor 创建预处理器，使用默认权重表。
func NewPreprocessor(featureKeys []string) *Preprocessor {
	return &Preprocessor{
		Keys:    featureKeys,
		Weights: core.DefaultInteractionWeights(),
	}
}

// Width 返回基础向量宽度（不含全局训练的用户索引项）。
func (p *Preprocessor) Width() int {
	return len(p.Keys) + 2
}

// Vectors 将行为序列逐条转换为特征向量，顺序保持一致。
// 空输入产出空输出，不是错误。
func (p *Preprocessor) Vectors(interactions []core.Interaction, mapping Mapping) [][]float64 {
	if len(interactions) == 0 {
		return nil
	}
	out := make([][]float64, 0, len(interactions))
	for i := range interactions {
		out = append(out, p.vector(&interactions[i], mapping))
	}
	return out
}

// Targets 返回每条行为的训练目标：weight/3。
// 模型学习的是归一化的行为强度信号，不是显式相关性标签。
func (p *Preprocessor) Targets(interactions []core.Interaction) []float64 {
	out := make([]float64, len(interactions))
	for i := range interactions {
		out[i] = p.Weights.Weight(interactions[i].Type) / weightScale
	}
	return out
}

// CandidateVector 构建候选商品的打分向量：逐维 rank/100 +
// 用户全体行为的平均权重/3（非逐候选）+ 归一化价格。
func (p *Preprocessor) CandidateVector(product *core.Product, mapping Mapping, avgWeight float64) []float64 {
	vec := make([]float64, 0, p.Width())
	for _, key := range p.Keys {
		rank := mapping.Rank(key, product.FeatureID(key))
		vec = append(vec, float64(rank)/rankScale)
	}
	vec = append(vec, avgWeight/weightScale)
	vec = append(vec, NormalizePrice(product.Price))
	return vec
}

func (p *Preprocessor) vector(in *core.Interaction, mapping Mapping) []float64 {
	vec := make([]float64, 0, p.Width())
	for _, key := range p.Keys {
		rank := mapping.Rank(key, in.FeatureID(key))
		vec = append(vec, float64(rank)/rankScale)
	}
	vec = append(vec, p.Weights.Weight(in.Type)/weightScale)
	vec = append(vec, NormalizePrice(in.Price))
	return vec
}

// NormalizePrice 把价格线性压到 [0,1]：clamp((p-100)/(10000-100), 0, 1)。
func NormalizePrice(price float64) float64 {
	n := (price - minPrice) / (maxPrice - minPrice)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}
