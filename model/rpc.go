package model

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"slices"
	"time"

	"github.com/goccy/go-json"
)

// RPCModel 是通过 HTTP 调用外部模型服务的 RankModel 实现，
// 适用于模型由独立的推理服务（TorchServe、Triton、自建 Python 服务等）托管的部署。
// 特征列顺序由配置给出，连接在启动时不做探测。
type RPCModel struct {
	name         string
	Endpoint     string // 例如 "http://localhost:8080/predict"
	Timeout      time.Duration
	Client       *http.Client
	featureNames []string
}

func NewRPCModel(name, endpoint string, timeout time.Duration, featureNames []string) *RPCModel {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &RPCModel{
		name:     name,
		Endpoint: endpoint,
		Timeout:  timeout,
		Client: &http.Client{
			Timeout: timeout,
		},
		featureNames: slices.Clone(featureNames),
	}
}

func (m *RPCModel) Name() string {
	return m.name
}

func (m *RPCModel) FeatureNames() []string { return m.featureNames }

// PredictBatch 调用远程模型服务进行批量预测。
// 请求格式（JSON），缺失特征为 null：
//
//	{"features_list": [{"up_orders": 3, "up_reorder_rate": 0.5, ...}, ...]}
//
// 响应格式（JSON）：
//
//	{"scores": [0.85, 0.72, ...]}
func (m *RPCModel) PredictBatch(ctx context.Context, rows [][]float64) ([]float64, error) {
	if m.Client == nil {
		m.Client = &http.Client{Timeout: m.Timeout}
	}

	if len(rows) == 0 {
		return []float64{}, nil
	}
	if err := checkRows(m.Name(), rows, len(m.featureNames)); err != nil {
		return nil, err
	}

	featuresList := make([]map[string]*float64, len(rows))
	for i, r := range rows {
		f := make(map[string]*float64, len(r))
		for j, v := range r {
			if math.IsNaN(v) {
				f[m.featureNames[j]] = nil
				continue
			}
			f[m.featureNames[j]] = &v
		}
		featuresList[i] = f
	}

	// 构建请求
	reqBody := map[string]any{
		"features_list": featuresList,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// 发送请求
	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("rpc error: status=%d, read body failed: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("rpc error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	// 解析响应
	var result struct {
		Scores []float64 `json:"scores"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(result.Scores) != len(rows) {
		return nil, fmt.Errorf("response scores count mismatch: expected %d, got %d", len(rows), len(result.Scores))
	}

	return result.Scores, nil
}
