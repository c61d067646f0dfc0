package filter

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/reco/core"
)

// Rule 是候选商品的规则过滤器，使用 CEL (Common Expression Language) 表达式。
// 在候选拉取之后、模型打分之前执行，表达式返回 true 的候选被保留。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：product.price < 5000.0
//   - 取值：product.features.category == "c1"
//   - 逻辑：product.price >= 100.0 && product.is_active
//   - 存在性：CEL 访问不存在的 key 会报错，用 "category" in product.features 检查
//
// 表达式在构造时编译一次，之后逐候选求值，线程安全。
type Rule struct {
	expr string
	prg  cel.Program
}

// NewRule 编译表达式并返回规则过滤器。表达式为空时返回 (nil, nil)，
// 表示不启用过滤。
func NewRule(expr string) (*Rule, error) {
	if expr == "" {
		return nil, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("product", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile rule %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program rule %q: %w", expr, err)
	}
	return &Rule{expr: expr, prg: prg}, nil
}

// Expr 返回规则的原始表达式。
func (r *Rule) Expr() string { return r.expr }

// Keep 对单个候选求值。求值出错（如访问不存在的 key）按不保留处理并返回错误，
// 由调用方决定是否整体降级。
func (r *Rule) Keep(product *core.Product) (bool, error) {
	out, _, err := r.prg.Eval(map[string]interface{}{
		"product": buildInput(product),
	})
	if err != nil {
		return false, fmt.Errorf("eval rule %q: %w", r.expr, err)
	}
	keep, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %q must return boolean, got %T", r.expr, out.Value())
	}
	return keep, nil
}

// Apply 过滤候选列表，保序。任何一个候选求值失败即整体失败。
func (r *Rule) Apply(products []core.Product) ([]core.Product, error) {
	if r == nil {
		return products, nil
	}
	out := make([]core.Product, 0, len(products))
	for i := range products {
		keep, err := r.Keep(&products[i])
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, products[i])
		}
	}
	return out, nil
}

// buildInput 构建 CEL 表达式的输入数据。
// features 展开为取值 ID 的 map，表达式无需关心裸 ID / 内嵌对象的差异。
func buildInput(p *core.Product) map[string]interface{} {
	features := make(map[string]interface{}, len(p.Features))
	for key, ref := range p.Features {
		features[key] = ref.FeatureID()
	}
	return map[string]interface{}{
		"id":             p.ID,
		"name":           p.Name,
		"price":          p.Price,
		"average_rating": p.AverageRating,
		"is_active":      p.IsActive,
		"features":       features,
	}
}
