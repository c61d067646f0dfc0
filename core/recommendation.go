package core

// ReasonPopular 是兜底推荐的固定说明文案。
const ReasonPopular = "Popular Choice"

// Recommendation 是推荐结果的最小单元。
// Reason 仅在兜底链路上设置，用于 explain。
type Recommendation struct {
	Product Product `json:"product"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason,omitempty"`
}
