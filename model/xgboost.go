package model

import (
	"context"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/rushteam/reorder/core"
)

// XGBoostModel 是 XGBoost JSON 模型（Booster.save_model("*.json")）的纯 Go 推理实现。
//
// 支持范围：
//   - booster：gbtree、dart（dart 推理时按 weight_drop 加权）
//   - objective：binary:logistic、reg:logistic、binary:logitraw
//   - 数值切分（fvalue < cond 走左子树）与类别切分（类别在集合内走右子树）
//   - 缺失值（NaN）按 default_left 决定方向
//   - attributes.best_iteration：只使用前 best_iteration+1 轮的树，与 predict_proba 一致
//
// 累加在 float32 上进行，与 XGBoost 的预测精度保持一致。
type XGBoostModel struct {
	objective    string
	featureNames []string
	numFeature   int
	baseMargin   float32
	trees        []xgbTree
}

type xgbTree struct {
	left        []int32
	right       []int32
	feature     []int32
	cond        []float32
	defaultLeft []bool
	categories  [][]int64 // 仅类别切分节点非 nil，升序
	weight      float32
}

// LoadXGBoostModel 从 JSON 文件加载模型
func LoadXGBoostModel(path string) (*XGBoostModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read xgboost model: %w", err)
	}
	return ParseXGBoostModel(data)
}

// ParseXGBoostModel 解析 XGBoost JSON 模型
func ParseXGBoostModel(data []byte) (*XGBoostModel, error) {
	var doc xgbDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, core.WrapDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, err, "model: decode xgboost json")
	}
	l := doc.Learner

	objective := l.Objective.Name
	switch objective {
	case "binary:logistic", "reg:logistic", "binary:logitraw":
	default:
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotSupported,
			fmt.Sprintf("model: unsupported objective %q", objective))
	}

	if nc, _ := parseIntParam(l.LearnerModelParam.NumClass); nc > 1 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotSupported,
			fmt.Sprintf("model: multi-class model (num_class=%d) is not supported", nc))
	}

	baseScore, err := parseBaseScore(l.LearnerModelParam.BaseScore)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, err, "model: base_score")
	}
	var baseMargin float64
	if objective == "binary:logitraw" {
		baseMargin = baseScore
	} else {
		if baseScore <= 0 || baseScore >= 1 {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
				fmt.Sprintf("model: base_score %v must be in (0, 1) for %s", baseScore, objective))
		}
		baseMargin = math.Log(baseScore / (1 - baseScore))
	}

	numFeature, _ := parseIntParam(l.LearnerModelParam.NumFeature)
	if len(l.FeatureNames) > 0 {
		numFeature = len(l.FeatureNames)
	}

	gb := l.GradientBooster
	var (
		model   xgbGBTreeModel
		weights []float64
	)
	switch gb.Name {
	case "gbtree":
		model = gb.Model
	case "dart":
		if gb.GBTree == nil {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "model: dart booster without gbtree")
		}
		model = gb.GBTree.Model
		weights = gb.WeightDrop
	default:
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotSupported,
			fmt.Sprintf("model: unsupported booster %q", gb.Name))
	}

	limit := len(model.Trees)
	if s, ok := l.Attributes["best_iteration"]; ok && s != "" {
		best, err := strconv.Atoi(s)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, err, "model: best_iteration")
		}
		limit = treesUpTo(model, best+1)
	}

	m := &XGBoostModel{
		objective:    objective,
		featureNames: slices.Clone(l.FeatureNames),
		numFeature:   numFeature,
		baseMargin:   float32(baseMargin),
		trees:        make([]xgbTree, 0, limit),
	}
	for i := 0; i < limit; i++ {
		w := 1.0
		if weights != nil {
			if i >= len(weights) {
				return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
					fmt.Sprintf("model: dart weight_drop has %d entries, tree %d missing", len(weights), i))
			}
			w = weights[i]
		}
		t, err := buildTree(model.Trees[i], numFeature, float32(w))
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, err, "model: tree %d", i)
		}
		m.trees = append(m.trees, t)
	}
	return m, nil
}

func (m *XGBoostModel) Name() string { return TypeXGBoost }

func (m *XGBoostModel) FeatureNames() []string { return m.featureNames }

// PredictBatch 返回每行的正类概率（binary:logitraw 同样经过 sigmoid）。
func (m *XGBoostModel) PredictBatch(ctx context.Context, rows [][]float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkRows(m.Name(), rows, len(m.featureNames)); err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = float64(sigmoid32(m.margin(r)))
	}
	return out, nil
}

// applyFeatureNames 在模型文件缺少 feature_names 时使用配置的列名。
func (m *XGBoostModel) applyFeatureNames(names []string) error {
	if len(m.featureNames) > 0 {
		return nil
	}
	if len(names) == 0 {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
			"model: xgboost model has no feature_names and none are configured")
	}
	if m.numFeature > 0 && len(names) != m.numFeature {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
			fmt.Sprintf("model: %d feature_names configured, model expects %d", len(names), m.numFeature))
	}
	for i := range m.trees {
		t := &m.trees[i]
		for nid, f := range t.feature {
			if t.left[nid] != -1 && int(f) >= len(names) {
				return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
					fmt.Sprintf("model: tree %d splits on feature %d, only %d feature_names configured", i, f, len(names)))
			}
		}
	}
	m.featureNames = slices.Clone(names)
	m.numFeature = len(names)
	return nil
}

func (m *XGBoostModel) margin(row []float64) float32 {
	sum := m.baseMargin
	for i := range m.trees {
		t := &m.trees[i]
		sum += t.leaf(row) * t.weight
	}
	return sum
}

func (t *xgbTree) leaf(row []float64) float32 {
	nid := int32(0)
	// 加载时已校验子节点下标，步数上限只防御环
	for steps := 0; steps <= len(t.left); steps++ {
		if t.left[nid] == -1 {
			return t.cond[nid]
		}
		v := row[t.feature[nid]]
		var goLeft bool
		switch {
		case math.IsNaN(v):
			goLeft = t.defaultLeft[nid]
		case t.categories[nid] != nil:
			goLeft = !inCategories(t.categories[nid], v)
		default:
			goLeft = float32(v) < t.cond[nid]
		}
		if goLeft {
			nid = t.left[nid]
		} else {
			nid = t.right[nid]
		}
	}
	return 0
}

func inCategories(cats []int64, v float64) bool {
	if v < 0 || v != math.Trunc(v) || v > math.MaxInt32 {
		return false
	}
	_, found := slices.BinarySearch(cats, int64(v))
	return found
}

func sigmoid32(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}

func buildTree(raw xgbRawTree, numFeature int, weight float32) (xgbTree, error) {
	n := len(raw.LeftChildren)
	if n == 0 {
		return xgbTree{}, fmt.Errorf("empty tree")
	}
	if len(raw.RightChildren) != n || len(raw.SplitIndices) != n || len(raw.SplitConditions) != n {
		return xgbTree{}, fmt.Errorf("inconsistent node arrays (%d nodes)", n)
	}
	if len(raw.DefaultLeft) != 0 && len(raw.DefaultLeft) != n {
		return xgbTree{}, fmt.Errorf("default_left has %d entries, expected %d", len(raw.DefaultLeft), n)
	}

	t := xgbTree{
		left:        make([]int32, n),
		right:       make([]int32, n),
		feature:     make([]int32, n),
		cond:        make([]float32, n),
		defaultLeft: make([]bool, n),
		categories:  make([][]int64, n),
		weight:      weight,
	}
	for i := 0; i < n; i++ {
		l, r := raw.LeftChildren[i], raw.RightChildren[i]
		t.left[i], t.right[i] = int32(l), int32(r)
		t.cond[i] = float32(raw.SplitConditions[i])
		if len(raw.DefaultLeft) > 0 {
			t.defaultLeft[i] = bool(raw.DefaultLeft[i])
		}
		if l == -1 {
			continue
		}
		if l <= 0 || l >= n || r <= 0 || r >= n {
			return xgbTree{}, fmt.Errorf("node %d has invalid children (%d, %d)", i, l, r)
		}
		f := raw.SplitIndices[i]
		if f < 0 || (numFeature > 0 && f >= numFeature) {
			return xgbTree{}, fmt.Errorf("node %d splits on feature %d, model has %d", i, f, numFeature)
		}
		t.feature[i] = int32(f)
	}

	for k, nid := range raw.CategoriesNodes {
		if nid < 0 || nid >= n || k >= len(raw.CategoriesSegments) || k >= len(raw.CategoriesSizes) {
			return xgbTree{}, fmt.Errorf("invalid categorical node %d", nid)
		}
		beg, size := raw.CategoriesSegments[k], raw.CategoriesSizes[k]
		if beg < 0 || size < 0 || beg+size > int64(len(raw.Categories)) {
			return xgbTree{}, fmt.Errorf("categorical node %d segment out of range", nid)
		}
		cats := slices.Clone(raw.Categories[beg : beg+size])
		slices.Sort(cats)
		if cats == nil {
			cats = []int64{}
		}
		t.categories[nid] = cats
	}
	for i, st := range raw.SplitType {
		if st == 1 && i < n && t.left[i] != -1 && t.categories[i] == nil {
			t.categories[i] = []int64{}
		}
	}
	return t, nil
}

// treesUpTo 返回前 iterations 轮包含的树数量
func treesUpTo(model xgbGBTreeModel, iterations int) int {
	total := len(model.Trees)
	if iterations <= 0 {
		return 0
	}
	if len(model.IterationIndptr) > 0 {
		if iterations >= len(model.IterationIndptr) {
			return total
		}
		return min(model.IterationIndptr[iterations], total)
	}
	perIter, _ := parseIntParam(model.Param.NumParallelTree)
	if perIter <= 0 {
		perIter = 1
	}
	return min(iterations*perIter, total)
}

// parseBaseScore 兼容 "5E-1" 与 XGBoost 3.x 的 "[5E-1]"
func parseBaseScore(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if s == "" {
		return 0.5, nil
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func parseIntParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// XGBoost JSON 文档结构（只保留推理需要的字段）

type xgbDocument struct {
	Learner xgbLearner `json:"learner"`
}

type xgbLearner struct {
	Attributes        map[string]string `json:"attributes"`
	FeatureNames      []string          `json:"feature_names"`
	GradientBooster   xgbBooster        `json:"gradient_booster"`
	LearnerModelParam struct {
		BaseScore  string `json:"base_score"`
		NumClass   string `json:"num_class"`
		NumFeature string `json:"num_feature"`
	} `json:"learner_model_param"`
	Objective struct {
		Name string `json:"name"`
	} `json:"objective"`
}

type xgbBooster struct {
	Name       string         `json:"name"`
	Model      xgbGBTreeModel `json:"model"`
	GBTree     *xgbBooster    `json:"gbtree"`
	WeightDrop []float64      `json:"weight_drop"`
}

type xgbGBTreeModel struct {
	Param struct {
		NumParallelTree string `json:"num_parallel_tree"`
	} `json:"gbtree_model_param"`
	IterationIndptr []int        `json:"iteration_indptr"`
	Trees           []xgbRawTree `json:"trees"`
}

type xgbRawTree struct {
	LeftChildren       []int      `json:"left_children"`
	RightChildren      []int      `json:"right_children"`
	SplitIndices       []int      `json:"split_indices"`
	SplitConditions    []float64  `json:"split_conditions"`
	DefaultLeft        []flexBool `json:"default_left"`
	SplitType          []int      `json:"split_type"`
	Categories         []int64    `json:"categories"`
	CategoriesNodes    []int      `json:"categories_nodes"`
	CategoriesSegments []int64    `json:"categories_segments"`
	CategoriesSizes    []int64    `json:"categories_sizes"`
}

// flexBool 兼容 default_left 的 0/1 与 true/false 两种写法
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true", "1":
		*b = true
	case "false", "0", "null":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}
