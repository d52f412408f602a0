package predict

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/reorder/config"
	"github.com/rushteam/reorder/core"
	"github.com/rushteam/reorder/feature"
	"github.com/rushteam/reorder/filter"
	"github.com/rushteam/reorder/store"
)

// scoreModel 直接以第一个特征作为复购概率
type scoreModel struct{ err error }

func (m *scoreModel) Name() string           { return "score" }
func (m *scoreModel) FeatureNames() []string { return []string{"p"} }
func (m *scoreModel) PredictBatch(_ context.Context, rows [][]float64) ([]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r[0]
	}
	return out, nil
}

func row(i int, user, product, n int64, p float64) core.FeatureRow {
	return core.FeatureRow{Row: i, UserID: user, ProductID: product, ExpectedReorders: n, HasExpectedReorders: true, Values: []float64{p}}
}

func testArtifacts() *Artifacts {
	rows := []core.FeatureRow{
		row(0, 1, 101, 2, 0.30),
		row(1, 1, 102, 2, 0.90),
		row(2, 1, 103, 2, 0.60),
		row(3, 2, 201, 0, 0.99),
		row(4, 3, 301, 5, 0.50),
		row(5, 3, 302, 5, 0.70),
		row(6, 4, 401, 2, 0.40),
		row(7, 4, 402, 2, 0.40),
		row(8, 4, 403, 2, 0.40),
	}
	return &Artifacts{
		Model:    &scoreModel{},
		Features: feature.NewTable("test", []string{"p"}, rows),
		Lookup:   store.NewMemoryLookup(map[int64]string{101: "Banana", 102: "Limes", 103: "Milk", 301: "Eggs"}),
	}
}

func productIDs(r *Response) []int64 {
	out := make([]int64, 0, len(r.PredictedProducts))
	for _, p := range r.PredictedProducts {
		out = append(out, p.ProductID)
	}
	return out
}

func TestService_Predict(t *testing.T) {
	svc := NewService(testArtifacts())
	require.True(t, svc.Ready())

	tests := []struct {
		name   string
		userID int64
		want   []int64
	}{
		{name: "top n by probability", userID: 1, want: []int64{102, 103}},
		{name: "zero expected reorders", userID: 2, want: []int64{}},
		{name: "n larger than candidates", userID: 3, want: []int64{302, 301}},
		{name: "ties keep file order", userID: 4, want: []int64{401, 402}},
		{name: "unknown user", userID: 999, want: []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Predict(context.Background(), tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, resp.UserID)
			assert.NotNil(t, resp.PredictedProducts)
			assert.Equal(t, tt.want, productIDs(resp))
		})
	}
}

func TestService_ProductNames(t *testing.T) {
	svc := NewService(testArtifacts())
	resp, err := svc.Predict(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, resp.PredictedProducts, 2)

	// 302 不在查找表中：保留该商品，名称为 null
	assert.Nil(t, resp.PredictedProducts[0].ProductName)
	require.NotNil(t, resp.PredictedProducts[1].ProductName)
	assert.Equal(t, "Eggs", *resp.PredictedProducts[1].ProductName)
}

func TestService_Filter(t *testing.T) {
	a := testArtifacts()
	f, err := filter.NewExprFilter("item.features.p < 0.8", a.Model.FeatureNames())
	require.NoError(t, err)
	a.Filter = f

	resp, err := NewService(a).Predict(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{103, 101}, productIDs(resp))
}

func TestService_Unavailable(t *testing.T) {
	svc := NewService(nil)
	assert.False(t, svc.Ready())

	_, err := svc.Predict(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err))
	assert.NoError(t, svc.Close())
}

func TestService_ModelError(t *testing.T) {
	a := testArtifacts()
	a.Model = &scoreModel{err: errors.New("bad tree")}
	_, err := NewService(a).Predict(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, core.IsUnavailable(err))
	assert.False(t, core.IsInvalidInput(err))
}

const modelJSON = `{
	"learner": {
		"attributes": {},
		"feature_names": ["up_orders", "up_reorder_rate"],
		"gradient_booster": {
			"name": "gbtree",
			"model": {
				"gbtree_model_param": {"num_parallel_tree": "1", "num_trees": "1"},
				"iteration_indptr": [0, 1],
				"tree_info": [0],
				"trees": [{
					"left_children": [1, 3, -1, -1, -1],
					"right_children": [2, 4, -1, -1, -1],
					"split_indices": [0, 1, 0, 0, 0],
					"split_conditions": [4.0, 0.5, 1.5, -1.0, 0.5],
					"default_left": [1, 1, 0, 0, 0]
				}]
			}
		},
		"learner_model_param": {"base_score": "5E-1", "num_class": "0", "num_feature": "2"},
		"objective": {"name": "binary:logistic"}
	},
	"version": [2, 1, 0]
}`

// 叶子：up_orders >= 4 -> 1.5；否则 up_reorder_rate < 0.5 -> -1.0，其余 0.5；缺失值走左子树
const featuresCSV = `user_id,product_id,up_orders,up_reorder_rate,expected_reorders_n
7,1,1,0.2,2
7,2,6,0.1,2
7,3,2,0.9,2
7,4,,,2
8,5,9,0.9,0
`

const lookupCSV = `product_id,product_name
1,Banana
2,Organic Avocado
`

func writeArtifacts(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		return p
	}
	return &config.Config{
		Model: config.ModelConfig{Type: "xgboost", Path: write("model.json", modelJSON)},
		Features: config.FeaturesConfig{
			Path:          write("features.csv", featuresCSV),
			UserColumn:    "user_id",
			ProductColumn: "product_id",
			CountColumn:   "expected_reorders_n",
		},
		Lookup: config.LookupConfig{
			Backend:       "file",
			Path:          write("products.csv", lookupCSV),
			ProductColumn: "product_id",
			NameColumn:    "product_name",
		},
	}
}

func TestLoadAndPredict(t *testing.T) {
	cfg := writeArtifacts(t)
	a, err := Load(context.Background(), cfg)
	require.NoError(t, err)
	svc := NewService(a)
	defer svc.Close()

	resp, err := svc.Predict(context.Background(), 7)
	require.NoError(t, err)
	// 分数：2 -> 1.5，3 -> 0.5，1 与 4 -> -1.0（同分保持行序）
	assert.Equal(t, []int64{2, 3}, productIDs(resp))
	require.NotNil(t, resp.PredictedProducts[0].ProductName)
	assert.Equal(t, "Organic Avocado", *resp.PredictedProducts[0].ProductName)
	assert.Nil(t, resp.PredictedProducts[1].ProductName)

	resp, err = svc.Predict(context.Background(), 8)
	require.NoError(t, err)
	assert.Empty(t, resp.PredictedProducts)
}

func TestLoad_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"missing model", func(c *config.Config) { c.Model.Path = filepath.Join(t.TempDir(), "nope.json") }},
		{"missing features", func(c *config.Config) { c.Features.Path = filepath.Join(t.TempDir(), "nope.parquet") }},
		{"missing lookup", func(c *config.Config) { c.Lookup.Path = filepath.Join(t.TempDir(), "nope.parquet") }},
		{"schema mismatch", func(c *config.Config) { c.Features.CountColumn = "n" }},
		{"bad filter", func(c *config.Config) { c.Predict.Filter = "item.score >" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := writeArtifacts(t)
			tt.mutate(cfg)
			a, err := Load(context.Background(), cfg)
			assert.Error(t, err)
			assert.Nil(t, a)
		})
	}
}
