package core

import "encoding/json"

// FeatureValue 是某个特征维度的一个取值（如一个类目、一个品牌）。
// 目录接口（DataSource.FetchFeatureValues）返回的顺序决定该取值的 rank。
type FeatureValue struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// FeatureRef 是特征取值的引用：业务数据中同一个字段可能是裸字符串 ID，
// 也可能是内嵌的 FeatureValue 对象。统一收敛为 FeatureRef，
// 并通过唯一的 FeatureID 做解析，保证画像统计、预处理、候选打分
// 三处的解析逻辑永远一致。
type FeatureRef struct {
	// ID 是裸字符串形式的取值 ID，优先于 Value。
	ID string `json:"id,omitempty"`

	// Value 是内嵌对象形式的取值。
	Value *FeatureValue `json:"value,omitempty"`
}

// RefID 返回裸字符串形式的引用。
func RefID(id string) FeatureRef { return FeatureRef{ID: id} }

// RefValue 返回内嵌对象形式的引用。
func RefValue(v FeatureValue) FeatureRef { return FeatureRef{Value: &v} }

// FeatureID 解析引用为取值 ID；无法解析时返回空串。
func (r FeatureRef) FeatureID() string {
	if r.ID != "" {
		return r.ID
	}
	if r.Value != nil {
		return r.Value.ID
	}
	return ""
}

// UnmarshalJSON 兼容两种线上形态：裸字符串 ID 或内嵌对象 {id, name}。
func (r *FeatureRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = FeatureRef{ID: id}
		return nil
	}
	var v FeatureValue
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = FeatureRef{Value: &v}
	return nil
}

// MarshalJSON 保持原始形态：裸 ID 序列化为字符串，内嵌对象序列化为对象。
func (r FeatureRef) MarshalJSON() ([]byte, error) {
	if r.ID != "" {
		return json.Marshal(r.ID)
	}
	if r.Value != nil {
		return json.Marshal(r.Value)
	}
	return []byte("null"), nil
}

// Product 是候选/热门商品，管道视角下不可变，由外部数据源持有。
type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name,omitempty"`
	Price float64 `json:"price"`

	// Features 是商品在各配置特征维度上的取值。
	Features map[string]FeatureRef `json:"features,omitempty"`

	// 展示字段，管道不参与计算
	Images        []string `json:"images,omitempty"`
	AverageRating float64  `json:"average_rating,omitempty"`
	IsActive      bool     `json:"is_active,omitempty"`
}

// FeatureID 解析商品在某特征维度上的取值 ID；缺失时返回空串。
func (p *Product) FeatureID(key string) string {
	if p == nil || p.Features == nil {
		return ""
	}
	return p.Features[key].FeatureID()
}
