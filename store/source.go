package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rushteam/reco/core"
)

// StoreDataSource 是基于 KeyValueStore 的 core.DataSource 实现，
// 让只有一个 KV 后端（Redis/内存）的应用无需自己实现数据源。
//
// key 布局：
//   - catalog:<featureKey>            特征取值目录（JSON 数组，顺序即 rank）
//   - interactions:all                全量行为日志（JSON 数组）
//   - interactions:user:<userID>      单用户行为日志（JSON 数组）
//   - products                        商品元数据（Hash，field 为商品 ID）
//   - popular:products                热门榜（ZSet，score 为热度）
//   - idx:<featureKey>:<valueID>      候选索引（ZSet，member 为商品 ID）
//
// 候选过滤语义：同一特征维度内取值之间为 OR，跨维度取并集（union），
// 排除列表始终生效。
type StoreDataSource struct {
	store core.KeyValueStore
}

func NewStoreDataSource(kv core.KeyValueStore) *StoreDataSource {
	return &StoreDataSource{store: kv}
}

var _ core.DataSource = (*StoreDataSource)(nil)

const (
	keyProducts   = "products"
	keyPopular    = "popular:products"
	keyAllEvents  = "interactions:all"
	catalogPrefix = "catalog:"
	userPrefix    = "interactions:user:"
	indexPrefix   = "idx:"
)

// FetchInteractions 实现 core.DataSource。userID 为空时返回全量日志。
func (s *StoreDataSource) FetchInteractions(ctx context.Context, userID string) ([]core.Interaction, error) {
	key := keyAllEvents
	if userID != "" {
		key = userPrefix + userID
	}
	data, err := s.store.Get(ctx, key)
	if core.IsStoreNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch interactions: %w", err)
	}
	var out []core.Interaction
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode interactions: %w", err)
	}
	return out, nil
}

// FetchFeatureValues 实现 core.DataSource。目录顺序即存储顺序。
func (s *StoreDataSource) FetchFeatureValues(ctx context.Context, featureKey string) ([]core.FeatureValue, error) {
	data, err := s.store.Get(ctx, catalogPrefix+featureKey)
	if core.IsStoreNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch catalog %q: %w", featureKey, err)
	}
	var out []core.FeatureValue
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode catalog %q: %w", featureKey, err)
	}
	return out, nil
}

// FetchCandidateProducts 实现 core.DataSource。
// 特征维度按名称排序遍历，保证同样的查询产出同样的候选顺序。
func (s *StoreDataSource) FetchCandidateProducts(ctx context.Context, q core.CandidateQuery) ([]core.Product, error) {
	exclude := make(map[string]struct{}, len(q.ExcludeIDs))
	for _, id := range q.ExcludeIDs {
		exclude[id] = struct{}{}
	}

	keys := make([]string, 0, len(q.FeatureFilters))
	for key := range q.FeatureFilters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	seen := make(map[string]struct{})
	out := make([]core.Product, 0, q.Limit)
	for _, key := range keys {
		for _, valueID := range q.FeatureFilters[key] {
			members, err := s.store.ZRange(ctx, indexPrefix+key+":"+valueID, 0, int64(q.Limit)-1)
			if err != nil {
				return nil, fmt.Errorf("scan index %s:%s: %w", key, valueID, err)
			}
			for _, id := range members {
				if _, ok := exclude[id]; ok {
					continue
				}
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				product, err := s.product(ctx, id)
				if err != nil {
					return nil, err
				}
				if product == nil {
					continue // 索引指向已下架商品，跳过
				}
				out = append(out, *product)
				if q.Limit > 0 && len(out) >= q.Limit {
					return out, nil
				}
			}
		}
	}
	return out, nil
}

// FetchPopularProducts 实现 core.DataSource。热门榜按热度降序。
func (s *StoreDataSource) FetchPopularProducts(ctx context.Context, limit int) ([]core.Product, error) {
	members, err := s.store.ZRange(ctx, keyPopular, 0, int64(limit)-1)
	if err != nil {
		return nil, fmt.Errorf("fetch popular: %w", err)
	}
	out := make([]core.Product, 0, len(members))
	for _, id := range members {
		product, err := s.product(ctx, id)
		if err != nil {
			return nil, err
		}
		if product != nil {
			out = append(out, *product)
		}
	}
	return out, nil
}

func (s *StoreDataSource) product(ctx context.Context, id string) (*core.Product, error) {
	data, err := s.store.HGet(ctx, keyProducts, id)
	if core.IsStoreNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch product %q: %w", id, err)
	}
	var p core.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode product %q: %w", id, err)
	}
	return &p, nil
}

// 写入侧辅助方法：应用侧喂数据用，引擎自身只读。

// SeedCatalog 写入某特征维度的完整取值目录（覆盖写，顺序即 rank）。
func (s *StoreDataSource) SeedCatalog(ctx context.Context, featureKey string, values []core.FeatureValue) error {
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, catalogPrefix+featureKey, data)
}

// AddProduct 写入商品元数据、热门榜热度以及各特征维度的候选索引。
func (s *StoreDataSource) AddProduct(ctx context.Context, p core.Product, popularity float64) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.store.HSet(ctx, keyProducts, p.ID, data); err != nil {
		return err
	}
	if err := s.store.ZAdd(ctx, keyPopular, popularity, p.ID); err != nil {
		return err
	}
	for key, ref := range p.Features {
		id := ref.FeatureID()
		if id == "" {
			continue
		}
		if err := s.store.ZAdd(ctx, indexPrefix+key+":"+id, popularity, p.ID); err != nil {
			return err
		}
	}
	return nil
}

// AddInteraction 追加一条行为记录到全量日志和对应用户日志。
// 读改写，不做并发控制；并发写入方需要自行串行化。
func (s *StoreDataSource) AddInteraction(ctx context.Context, in core.Interaction) error {
	if err := s.appendInteraction(ctx, keyAllEvents, in); err != nil {
		return err
	}
	if in.UserID != "" {
		return s.appendInteraction(ctx, userPrefix+in.UserID, in)
	}
	return nil
}

func (s *StoreDataSource) appendInteraction(ctx context.Context, key string, in core.Interaction) error {
	var list []core.Interaction
	data, err := s.store.Get(ctx, key)
	if err != nil && !core.IsStoreNotFound(err) {
		return err
	}
	if err == nil {
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decode interactions %q: %w", key, err)
		}
	}
	list = append(list, in)
	out, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, key, out)
}
