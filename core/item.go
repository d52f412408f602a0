package core

import "github.com/rushteam/reorder/pkg/utils"

// Item 是推荐链路中的统一承载结构：候选商品、特征、分数、元信息、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	// ID 即 product_id
	ID int64
	// Score 是模型预测的复购概率
	Score float64
	// Features 按模型特征列顺序排列，缺失值为 NaN
	Features []float64
	// Row 是该候选在特征表中的原始行号，用于稳定排序与排查
	Row    int
	Meta   map[string]any
	Labels map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:     id,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// MetaKeyProductName 是商品名称在 Item.Meta 中的 key，未匹配到名称时不写入。
const MetaKeyProductName = "product_name"

// ProductName 返回 join 后的商品名称；未匹配时返回 nil。
func (it *Item) ProductName() *string {
	if it.Meta == nil {
		return nil
	}
	name, ok := it.Meta[MetaKeyProductName].(string)
	if !ok {
		return nil
	}
	return &name
}
