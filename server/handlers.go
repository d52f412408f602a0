package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/rushteam/reorder/core"
	"github.com/rushteam/reorder/logging"
	"github.com/rushteam/reorder/metrics"
)

// maxBodyBytes 限制 /predict 请求体大小
const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	if !s.predictor.Ready() {
		status = "unhealthy"
	}
	respondJSON(w, http.StatusOK, healthResponse{Status: status})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.Ctx(ctx)

	if !s.predictor.Ready() {
		metrics.RecordPrediction(metrics.OutcomeUnavailable, 0, 0)
		respondError(w, http.StatusServiceUnavailable, core.ErrServiceUnavailable.Message)
		return
	}

	userID, err := decodeUserID(r)
	if err != nil {
		log.Info().Err(err).Msg("Rejected prediction request")
		metrics.RecordPrediction(metrics.OutcomeInvalid, 0, 0)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Info().Int64("user_id", userID).Msg("Received prediction request")
	resp, err := s.predictor.Predict(ctx, userID)
	if err != nil {
		if core.IsUnavailable(err) {
			respondError(w, http.StatusServiceUnavailable, core.ErrServiceUnavailable.Message)
			return
		}
		log.Error().Err(err).Int64("user_id", userID).Msg("Prediction failed")
		respondError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	log.Info().
		Int64("user_id", userID).
		Int("products", len(resp.PredictedProducts)).
		Msg("Prediction completed")
	respondJSON(w, http.StatusOK, resp)
}

// decodeUserID 读取请求体中的 user_id；返回的错误消息可直接返回给客户端。
func decodeUserID(r *http.Request) (int64, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return 0, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, msgInvalidBody)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil || payload == nil {
		return 0, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, msgInvalidBody)
	}
	// 对象之后只允许空白
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return 0, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, msgInvalidBody)
	}

	raw, ok := payload["user_id"]
	if !ok {
		return 0, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, msgMissingUserID)
	}
	id, err := coerceUserID(raw)
	if err != nil {
		return 0, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, err.Error())
	}
	return id, nil
}
