package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rushteam/reorder/core"
	"github.com/rushteam/reorder/pkg/tabular"
)

// MemoryLookup 是内存实现的 ProductLookup，加载后只读，并发安全。
type MemoryLookup struct {
	names map[int64]string
}

// NewMemoryLookup 由现成的 map 创建查找表
func NewMemoryLookup(names map[int64]string) *MemoryLookup {
	if names == nil {
		names = make(map[int64]string)
	}
	return &MemoryLookup{names: names}
}

// LoadMemoryLookup 从 Parquet/CSV 商品表加载。
//
//   - 文件必须包含 productCol 与 nameCol，否则返回 INVALID_INPUT
//   - product_id 为 null 的行跳过
//   - product_name 为 null 的商品不写入，查询时按未匹配处理
//   - product_id 重复时保留第一次出现的名称
func LoadMemoryLookup(ctx context.Context, r *tabular.Reader, path, productCol, nameCol string) (*MemoryLookup, error) {
	available, err := r.Columns(ctx, path)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleLookup, core.ErrorCodeInvalidInput, err, "lookup: read schema")
	}
	var missing []string
	for _, c := range []string{productCol, nameCol} {
		if !slices.Contains(available, c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, core.NewDomainError(core.ModuleLookup, core.ErrorCodeInvalidInput,
			fmt.Sprintf("lookup: %s is missing columns: %s", path, strings.Join(missing, ", ")))
	}

	names := make(map[int64]string)
	seen := make(map[int64]struct{})
	err = r.Scan(ctx, path, []tabular.Column{
		{Name: productCol, Type: tabular.Int},
		{Name: nameCol, Type: tabular.String},
	}, func(_ int, v []tabular.Value) error {
		if !v[0].Valid {
			return nil
		}
		id := v[0].Int
		if _, dup := seen[id]; dup {
			return nil
		}
		seen[id] = struct{}{}
		if v[1].Valid {
			names[id] = v[1].Str
		}
		return nil
	})
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleLookup, core.ErrorCodeInvalidInput, err, "lookup: load %s", path)
	}
	return NewMemoryLookup(names), nil
}

func (m *MemoryLookup) Name() string { return BackendFile }

// Len 返回有名称的商品数
func (m *MemoryLookup) Len() int { return len(m.names) }

// All 返回全部名称的副本
func (m *MemoryLookup) All() map[int64]string {
	out := make(map[int64]string, len(m.names))
	for k, v := range m.names {
		out[k] = v
	}
	return out
}

func (m *MemoryLookup) BatchGetNames(_ context.Context, productIDs []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(productIDs))
	for _, id := range productIDs {
		if name, ok := m.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func (m *MemoryLookup) Close() error { return nil }
