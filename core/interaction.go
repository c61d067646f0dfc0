package core

// InteractionType 是历史行为类型。
type InteractionType string

const (
	InteractionOrder    InteractionType = "order"
	InteractionWishlist InteractionType = "wishlist"
	InteractionCart     InteractionType = "cart"
)

// Interaction 是一条用户与商品的历史行为记录，按请求从数据源取回，不可变。
type Interaction struct {
	ProductID string          `json:"product_id"`
	Type      InteractionType `json:"type"`
	Price     float64         `json:"price"`
	UserID    string          `json:"user_id,omitempty"`

	// Features 是行为发生时商品在各配置特征维度上的取值。
	Features map[string]FeatureRef `json:"features,omitempty"`
}

// FeatureID 解析行为记录在某特征维度上的取值 ID；缺失时返回空串。
func (i *Interaction) FeatureID(key string) string {
	if i == nil || i.Features == nil {
		return ""
	}
	return i.Features[key].FeatureID()
}

// InteractionWeights 是行为类型 → 强度权重表。
// 显式作为值传递/持有，不做包级可变状态；训练目标与特征中的
// 权重项均为 weight/3。
type InteractionWeights map[InteractionType]float64

// DefaultInteractionWeights 返回默认权重表。
func DefaultInteractionWeights() InteractionWeights {
	return InteractionWeights{
		InteractionOrder:    3.0,
		InteractionWishlist: 2.0,
		InteractionCart:     1.5,
	}
}

// Weight 返回某行为类型的权重，未知类型为 1.0。
func (w InteractionWeights) Weight(t InteractionType) float64 {
	if v, ok := w[t]; ok {
		return v
	}
	return 1.0
}
