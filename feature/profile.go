package feature

import (
	"sort"

	"github.com/rushteam/reco/core"
)

// Profile 是请求级的用户偏好画像：按配置特征维度统计
// 每个取值在用户行为历史中出现的次数，驱动打分后的 boost。
type Profile struct {
	// Counts[featureKey][valueID] = 出现次数
	Counts map[string]map[string]int

	// Total 是用户行为总数。
	Total int

	// hasValues 标记是否有任何一条行为解析出了任何配置维度的取值。
	hasValues bool
}

// BuildProfile 扫描用户行为构建偏好画像。
// 三处取值解析（画像、预处理、候选打分）统一走 FeatureRef.FeatureID。
func BuildProfile(interactions []core.Interaction, featureKeys []string) *Profile {
	p := &Profile{
		Counts: make(map[string]map[string]int, len(featureKeys)),
		Total:  len(interactions),
	}
	for _, key := range featureKeys {
		p.Counts[key] = make(map[string]int)
	}
	for i := range interactions {
		for _, key := range featureKeys {
			id := interactions[i].FeatureID(key)
			if id == "" {
				continue
			}
			p.Counts[key][id]++
			p.hasValues = true
		}
	}
	return p
}

// HasValues 报告画像是否非空：整个行为集一个取值都解析不出来时为 false，
// 推荐编排器据此直接走兜底。
func (p *Profile) HasValues() bool {
	return p.hasValues
}

// Count 返回某特征维度上某取值的出现次数。
func (p *Profile) Count(featureKey, valueID string) int {
	return p.Counts[featureKey][valueID]
}

// FilterSets 返回按特征维度聚合的取值 ID 集合（候选查询的过滤条件）。
// ID 做排序保证同一画像产出确定的查询；AND/OR 语义由数据源按自身约定解释。
func (p *Profile) FilterSets(featureKeys []string) map[string][]string {
	filters := make(map[string][]string, len(featureKeys))
	for _, key := range featureKeys {
		ids := make([]string, 0, len(p.Counts[key]))
		for id := range p.Counts[key] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		filters[key] = ids
	}
	return filters
}

// AverageWeight 返回用户全体行为的平均权重，候选向量统一使用该值。
func AverageWeight(interactions []core.Interaction, weights core.InteractionWeights) float64 {
	if len(interactions) == 0 {
		return 0
	}
	var total float64
	for i := range interactions {
		total += weights.Weight(interactions[i].Type)
	}
	return total / float64(len(interactions))
}
