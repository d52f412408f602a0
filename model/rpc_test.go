package model

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRPCModel_PredictBatch(t *testing.T) {
	var received struct {
		FeaturesList []map[string]*float64 `json:"features_list"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"scores": [0.9, 0.1]}`))
	}))
	defer srv.Close()

	m := NewRPCModel("rpc", srv.URL, time.Second, []string{"a", "b"})
	got, err := m.PredictBatch(context.Background(), [][]float64{{1, 2}, {3, math.NaN()}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.9, 0.1}, got)

	require.Len(t, received.FeaturesList, 2)
	assert.InDelta(t, 2.0, *received.FeaturesList[0]["b"], 1e-12)
	v, ok := received.FeaturesList[1]["b"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestRPCModel_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"status", http.StatusInternalServerError, "boom", "status=500"},
		{"count mismatch", http.StatusOK, `{"scores": [0.5]}`, "count mismatch"},
		{"bad json", http.StatusOK, `{"scores":`, "decode response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			m := NewRPCModel("rpc", srv.URL, time.Second, []string{"a"})
			_, err := m.PredictBatch(context.Background(), [][]float64{{1}, {2}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRPCModel_Empty(t *testing.T) {
	m := NewRPCModel("rpc", "http://127.0.0.1:0", 0, []string{"a"})
	got, err := m.PredictBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 5*time.Second, m.Timeout)
}
