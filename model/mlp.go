package model

import (
	"log"
	"math"
	"math/rand"
)

// MLP 是本地的单隐层感知机：dense(hidden, ReLU) → dense(1, sigmoid)。
//
// 工程特征：
//   - 实时性：好（本地推理，无网络开销）
//   - 计算复杂度：低（一个隐层的全连接）
//   - 可解释性：弱（依赖上层的规则 boost 做 explain）
//
// 输出范围 (0, 1)，与训练目标（行为强度 weight/3）同量纲。
type MLP struct {
	In     int         `json:"in"`     // 输入宽度（训练时锁定）
	Hidden int         `json:"hidden"` // 隐层神经元数
	W1     [][]float64 `json:"w1"`     // 隐层权重 [hidden][in]
	B1     []float64   `json:"b1"`     // 隐层偏置 [hidden]
	W2     []float64   `json:"w2"`     // 输出权重 [hidden]
	B2     float64     `json:"b2"`     // 输出偏置
}

func (m *MLP) Name() string  { return "mlp" }
func (m *MLP) InputDim() int { return m.In }

// PredictBatch 对整批向量逐行前向传播。
// 任何一行宽度与训练宽度不一致即整批失败。
func (m *MLP) PredictBatch(features [][]float64) ([]float64, error) {
	out := make([]float64, len(features))
	for i, row := range features {
		if len(row) != m.In {
			return nil, NewDimensionMismatch(len(row), m.In)
		}
		out[i] = m.forward(row)
	}
	return out, nil
}

// forward 前向传播：h = relu(W1·x + b1), y = sigmoid(W2·h + b2)。
func (m *MLP) forward(x []float64) float64 {
	z := m.B2
	for j := 0; j < m.Hidden; j++ {
		sum := m.B1[j]
		for k := 0; k < m.In; k++ {
			sum += m.W1[j][k] * x[k]
		}
		z += m.W2[j] * relu(sum)
	}
	return sigmoid(z)
}

func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// MLPTrainer 用 Adam + MSE 训练 MLP。
// Logger 为空时训练静默；训练过程不触碰任何包级状态，
// 随机源由 opts.Seed 派生，同样的数据和种子产出同样的模型。
type MLPTrainer struct {
	Hidden int
	Logger *log.Logger
}

// NewMLPTrainer 创建默认 16 隐元的训练器。
func NewMLPTrainer() *MLPTrainer {
	return &MLPTrainer{Hidden: 16}
}

// Train 实现 Trainer。空训练集返回 ErrNoTrainingData；
// 行宽不一致返回维度错误。
func (t *MLPTrainer) Train(features [][]float64, targets []float64, opts TrainOptions) (Scorer, error) {
	if len(features) == 0 || len(targets) == 0 {
		return nil, ErrNoTrainingData
	}
	in := len(features[0])
	for _, row := range features {
		if len(row) != in {
			return nil, NewDimensionMismatch(len(row), in)
		}
	}
	if opts.Epochs <= 0 {
		opts.Epochs = 10
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = 0.001
	}

	hidden := t.Hidden
	if hidden <= 0 {
		hidden = 16
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	m := newMLP(in, hidden, rng)

	// 验证集切分：尾部 ValidationSplit 比例留作 held-out
	trainX, trainY := features, targets
	var valX [][]float64
	var valY []float64
	if opts.ValidationSplit > 0 && len(features) > 1 {
		cut := len(features) - int(float64(len(features))*opts.ValidationSplit)
		if cut < 1 {
			cut = 1
		}
		trainX, trainY = features[:cut], targets[:cut]
		valX, valY = features[cut:], targets[cut:]
	}

	adam := newAdamState(m)
	order := make([]int, len(trainX))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		if opts.Shuffle {
			rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}
		for start := 0; start < len(order); start += opts.BatchSize {
			end := start + opts.BatchSize
			if end > len(order) {
				end = len(order)
			}
			adam.step(m, trainX, trainY, order[start:end], opts.LearningRate)
		}
		if t.Logger != nil {
			if len(valX) > 0 {
				t.Logger.Printf("mlp: epoch %d/%d loss=%.6f val_loss=%.6f",
					epoch+1, opts.Epochs, m.loss(trainX, trainY), m.loss(valX, valY))
			} else {
				t.Logger.Printf("mlp: epoch %d/%d loss=%.6f", epoch+1, opts.Epochs, m.loss(trainX, trainY))
			}
		}
	}
	return m, nil
}

func newMLP(in, hidden int, rng *rand.Rand) *MLP {
	m := &MLP{
		In:     in,
		Hidden: hidden,
		W1:     make([][]float64, hidden),
		B1:     make([]float64, hidden),
		W2:     make([]float64, hidden),
	}
	// Xavier 初始化
	scale1 := math.Sqrt(2.0 / float64(in+hidden))
	scale2 := math.Sqrt(2.0 / float64(hidden+1))
	for j := 0; j < hidden; j++ {
		m.W1[j] = make([]float64, in)
		for k := 0; k < in; k++ {
			m.W1[j][k] = rng.NormFloat64() * scale1
		}
		m.W2[j] = rng.NormFloat64() * scale2
	}
	return m
}

// loss 计算 MSE。
func (m *MLP) loss(x [][]float64, y []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for i, row := range x {
		d := m.forward(row) - y[i]
		sum += d * d
	}
	return sum / float64(len(x))
}

// adamState 持有 Adam 优化器的一阶/二阶矩。
type adamState struct {
	t          int
	mW1, vW1   [][]float64
	mB1, vB1   []float64
	mW2, vW2   []float64
	mB2, vB2   float64
	beta1      float64
	beta2      float64
	eps        float64
}

func newAdamState(m *MLP) *adamState {
	s := &adamState{
		mW1: make([][]float64, m.Hidden), vW1: make([][]float64, m.Hidden),
		mB1: make([]float64, m.Hidden), vB1: make([]float64, m.Hidden),
		mW2: make([]float64, m.Hidden), vW2: make([]float64, m.Hidden),
		beta1: 0.9, beta2: 0.999, eps: 1e-8,
	}
	for j := 0; j < m.Hidden; j++ {
		s.mW1[j] = make([]float64, m.In)
		s.vW1[j] = make([]float64, m.In)
	}
	return s
}

// step 在一个 minibatch 上做反向传播并应用 Adam 更新。
func (s *adamState) step(m *MLP, x [][]float64, y []float64, batch []int, lr float64) {
	gW1 := make([][]float64, m.Hidden)
	gB1 := make([]float64, m.Hidden)
	gW2 := make([]float64, m.Hidden)
	var gB2 float64
	for j := 0; j < m.Hidden; j++ {
		gW1[j] = make([]float64, m.In)
	}

	n := float64(len(batch))
	h := make([]float64, m.Hidden)
	for _, idx := range batch {
		row := x[idx]
		// 前向，保留隐层激活
		z := m.B2
		for j := 0; j < m.Hidden; j++ {
			sum := m.B1[j]
			for k := 0; k < m.In; k++ {
				sum += m.W1[j][k] * row[k]
			}
			h[j] = relu(sum)
			z += m.W2[j] * h[j]
		}
		out := sigmoid(z)

		// MSE + sigmoid 的输出梯度
		dOut := 2 * (out - y[idx]) / n
		dZ := dOut * out * (1 - out)

		gB2 += dZ
		for j := 0; j < m.Hidden; j++ {
			gW2[j] += dZ * h[j]
			if h[j] > 0 { // ReLU 梯度
				dH := dZ * m.W2[j]
				gB1[j] += dH
				for k := 0; k < m.In; k++ {
					gW1[j][k] += dH * row[k]
				}
			}
		}
	}

	s.t++
	for j := 0; j < m.Hidden; j++ {
		for k := 0; k < m.In; k++ {
			m.W1[j][k] -= s.update(&s.mW1[j][k], &s.vW1[j][k], gW1[j][k], lr)
		}
		m.B1[j] -= s.update(&s.mB1[j], &s.vB1[j], gB1[j], lr)
		m.W2[j] -= s.update(&s.mW2[j], &s.vW2[j], gW2[j], lr)
	}
	m.B2 -= s.update(&s.mB2, &s.vB2, gB2, lr)
}

// update 应用带偏差修正的 Adam 更新，返回参数增量。
func (s *adamState) update(mm, vv *float64, g, lr float64) float64 {
	*mm = s.beta1**mm + (1-s.beta1)*g
	*vv = s.beta2**vv + (1-s.beta2)*g*g
	mHat := *mm / (1 - math.Pow(s.beta1, float64(s.t)))
	vHat := *vv / (1 - math.Pow(s.beta2, float64(s.t)))
	return lr * mHat / (math.Sqrt(vHat) + s.eps)
}
