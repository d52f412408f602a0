package core

// RecommendContext 承载单次预测请求的用户与请求级参数，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID int64

	// Params 请求级上下文参数，由 Node 读写，例如：
	//   - expected_reorders_n：候选节点写入，TopN 节点读取
	//   - candidates：候选节点写入，用于监控
	Params map[string]any
}

func NewRecommendContext(userID int64) *RecommendContext {
	return &RecommendContext{
		UserID: userID,
		Params: make(map[string]any),
	}
}

// 候选节点写入的请求级参数
const (
	// ParamExpectedReorders 是 expected_reorders_n，TopN 节点据此截断
	ParamExpectedReorders = "expected_reorders_n"
	// ParamCandidates 是用户在特征表中的候选行数
	ParamCandidates = "candidates"
)

// SetParam 写入请求级参数。
func (rctx *RecommendContext) SetParam(key string, v any) {
	if rctx.Params == nil {
		rctx.Params = make(map[string]any)
	}
	rctx.Params[key] = v
}

// IntParam 读取整型参数，不存在或类型不符时返回 (0, false)。
func (rctx *RecommendContext) IntParam(key string) (int, bool) {
	if rctx.Params == nil {
		return 0, false
	}
	switch v := rctx.Params[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}
