// Package feature 提供特征表：以 (user_id, product_id) 为键、启动时整体加载到内存的
// 只读表，以及把某用户的全部行转换为候选商品的 CandidateNode。
package feature

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/rushteam/reorder/core"
	"github.com/rushteam/reorder/pkg/tabular"
)

// Columns 是特征表中键列与计数列的列名
type Columns struct {
	User             string
	Product          string
	ExpectedReorders string
}

// DefaultColumns 返回默认列名
func DefaultColumns() Columns {
	return Columns{
		User:             "user_id",
		Product:          "product_id",
		ExpectedReorders: core.ParamExpectedReorders,
	}
}

// Table 是内存特征表，实现 core.FeatureSource。
//
// 行按原始文件顺序保存，byUser 记录每个用户的行下标（升序），
// 因此 UserRows 返回的顺序即文件顺序。
type Table struct {
	name         string
	featureNames []string
	rows         []core.FeatureRow
	byUser       map[int64][]int
}

// NewTable 由已构造好的行创建特征表，行的 Values 必须按 featureNames 排列。
func NewTable(name string, featureNames []string, rows []core.FeatureRow) *Table {
	t := &Table{
		name:         name,
		featureNames: slices.Clone(featureNames),
		rows:         rows,
		byUser:       make(map[int64][]int),
	}
	for i := range rows {
		t.byUser[rows[i].UserID] = append(t.byUser[rows[i].UserID], i)
	}
	return t
}

// LoadTable 从 Parquet/CSV 文件加载特征表。
//
// featureNames 是模型特征列顺序；文件必须包含这些列以及 cols 中的三列，
// 否则返回 INVALID_INPUT 错误。特征值统一转为 float64，null 记为 NaN。
func LoadTable(ctx context.Context, r *tabular.Reader, path string, cols Columns, featureNames []string) (*Table, error) {
	if len(featureNames) == 0 {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, "feature: no model feature columns")
	}
	available, err := r.Columns(ctx, path)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, err, "feature: read schema")
	}
	required := append([]string{cols.User, cols.Product, cols.ExpectedReorders}, featureNames...)
	if missing := missingColumns(available, required); len(missing) > 0 {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput,
			fmt.Sprintf("feature: %s is missing columns: %s", path, strings.Join(missing, ", ")))
	}

	scan := []tabular.Column{
		{Name: cols.User, Type: tabular.Int},
		{Name: cols.Product, Type: tabular.Int},
		// 按浮点读取后向零截断，与 Python int() 一致；直接 CAST 为 BIGINT 会四舍五入
		{Name: cols.ExpectedReorders, Type: tabular.Float},
	}
	for _, name := range featureNames {
		scan = append(scan, tabular.Column{Name: name, Type: tabular.Float})
	}

	var rows []core.FeatureRow
	err = r.Scan(ctx, path, scan, func(row int, v []tabular.Value) error {
		if !v[0].Valid || !v[1].Valid {
			return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput,
				fmt.Sprintf("feature: row %d has null %s or %s", row, cols.User, cols.Product))
		}
		values := make([]float64, len(featureNames))
		for i := range featureNames {
			if fv := v[3+i]; fv.Valid {
				values[i] = fv.Float
			} else {
				values[i] = math.NaN()
			}
		}
		expected, hasExpected := truncCount(v[2])
		rows = append(rows, core.FeatureRow{
			Row:                 row,
			UserID:              v[0].Int,
			ProductID:           v[1].Int,
			ExpectedReorders:    expected,
			HasExpectedReorders: hasExpected,
			Values:              values,
		})
		return nil
	})
	if err != nil {
		if core.IsDomainError(err) {
			return nil, err
		}
		return nil, core.WrapDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, err, "feature: load %s", path)
	}
	return NewTable(path, featureNames, rows), nil
}

// truncCount 把 expected_reorders_n 向零截断为整数；null、NaN 或超出 int64 视为缺失
func truncCount(v tabular.Value) (int64, bool) {
	if !v.Valid || math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
		return 0, false
	}
	t := math.Trunc(v.Float)
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return 0, false
	}
	return int64(t), true
}

func (t *Table) Name() string { return t.name }

func (t *Table) FeatureNames() []string { return t.featureNames }

// Len 返回总行数
func (t *Table) Len() int { return len(t.rows) }

// Users 返回用户数
func (t *Table) Users() int { return len(t.byUser) }

func (t *Table) UserRows(_ context.Context, userID int64) ([]core.FeatureRow, error) {
	idx := t.byUser[userID]
	out := make([]core.FeatureRow, len(idx))
	for i, j := range idx {
		out[i] = t.rows[j]
	}
	return out, nil
}

func missingColumns(available, required []string) []string {
	var missing []string
	for _, c := range required {
		if !slices.Contains(available, c) && !slices.Contains(missing, c) {
			missing = append(missing, c)
		}
	}
	return missing
}
