package feature

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/reorder/core"
	"github.com/rushteam/reorder/pkg/tabular"
)

const featureCSV = `user_id,product_id,expected_reorders_n,up_orders,up_reorder_rate,extra
1,10,2,3,0.5,x
2,20,0,1,0.1,x
1,11,2,,0.9,x
1,12,2,5,0.2,x
`

func openReader(t *testing.T) *tabular.Reader {
	t.Helper()
	r, err := tabular.Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadTable(t *testing.T) {
	r := openReader(t)
	path := writeFile(t, "features.csv", featureCSV)

	tbl, err := LoadTable(context.Background(), r, path, DefaultColumns(), []string{"up_reorder_rate", "up_orders"})
	require.NoError(t, err)
	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, 2, tbl.Users())
	assert.Equal(t, []string{"up_reorder_rate", "up_orders"}, tbl.FeatureNames())

	rows, err := tbl.UserRows(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []int64{10, 11, 12}, []int64{rows[0].ProductID, rows[1].ProductID, rows[2].ProductID})
	assert.Equal(t, []int{0, 2, 3}, []int{rows[0].Row, rows[1].Row, rows[2].Row})
	assert.Equal(t, int64(2), rows[0].ExpectedReorders)
	assert.True(t, rows[0].HasExpectedReorders)

	// 特征按模型列顺序排列
	assert.InDelta(t, 0.5, rows[0].Values[0], 1e-12)
	assert.InDelta(t, 3.0, rows[0].Values[1], 1e-12)
	// null 记为 NaN
	assert.True(t, math.IsNaN(rows[1].Values[1]))

	rows, err = tbl.UserRows(context.Background(), 999)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLoadTable_ExpectedReordersTruncates(t *testing.T) {
	r := openReader(t)
	path := writeFile(t, "float_counts.csv", "user_id,product_id,expected_reorders_n,f\n1,10,2.6,0.1\n2,20,-1.7,0.2\n3,30,,0.3\n4,40,0.9,0.4\n")

	tbl, err := LoadTable(context.Background(), r, path, DefaultColumns(), []string{"f"})
	require.NoError(t, err)

	tests := []struct {
		user  int64
		want  int64
		valid bool
	}{
		{user: 1, want: 2, valid: true},
		{user: 2, want: -1, valid: true},
		{user: 3, want: 0, valid: false},
		{user: 4, want: 0, valid: true},
	}
	for _, tt := range tests {
		rows, err := tbl.UserRows(context.Background(), tt.user)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, tt.want, rows[0].ExpectedReorders, "user %d", tt.user)
		assert.Equal(t, tt.valid, rows[0].HasExpectedReorders, "user %d", tt.user)
	}
}

func TestLoadTable_Parquet(t *testing.T) {
	r := openReader(t)
	path := filepath.Join(t.TempDir(), "features.parquet")
	_, err := r.DB().ExecContext(context.Background(), `COPY (
		SELECT * FROM (VALUES (7, 70, 1, 0.25), (7, 71, 1, 0.75)) t(user_id, product_id, expected_reorders_n, f)
	) TO `+tabular.QuoteLiteral(path)+` (FORMAT PARQUET)`)
	require.NoError(t, err)

	tbl, err := LoadTable(context.Background(), r, path, DefaultColumns(), []string{"f"})
	require.NoError(t, err)
	rows, err := tbl.UserRows(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.InDelta(t, 0.75, rows[1].Values[0], 1e-12)
}

func TestLoadTable_SchemaErrors(t *testing.T) {
	r := openReader(t)
	ctx := context.Background()
	path := writeFile(t, "features.csv", featureCSV)

	_, err := LoadTable(ctx, r, path, DefaultColumns(), []string{"up_orders", "missing_feature"})
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "missing_feature")

	cols := DefaultColumns()
	cols.ExpectedReorders = "n"
	_, err = LoadTable(ctx, r, path, cols, []string{"up_orders"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "n")

	_, err = LoadTable(ctx, r, path, DefaultColumns(), nil)
	assert.Error(t, err)

	_, err = LoadTable(ctx, r, filepath.Join(t.TempDir(), "nope.parquet"), DefaultColumns(), []string{"up_orders"})
	assert.Error(t, err)

	nullKey := writeFile(t, "nullkey.csv", "user_id,product_id,expected_reorders_n,f\n1,,1,0.5\n")
	_, err = LoadTable(ctx, r, nullKey, DefaultColumns(), []string{"f"})
	assert.True(t, core.IsInvalidInput(err))
}
