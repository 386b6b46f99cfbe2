// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopsight/shopsight/internal/config"
	"github.com/shopsight/shopsight/internal/forecast"
	"github.com/shopsight/shopsight/internal/logging"
	"github.com/shopsight/shopsight/internal/recommend"
	"github.com/shopsight/shopsight/internal/registry"
	"github.com/shopsight/shopsight/internal/segment"
	"github.com/shopsight/shopsight/internal/sentiment"
	"github.com/shopsight/shopsight/internal/store"
)

// RecommendEngine is the recommendation surface the handlers need.
// Satisfied by *recommend.Engine.
type RecommendEngine interface {
	ForUser(ctx context.Context, req recommend.UserRequest) (*recommend.Result, error)
	SimilarTo(ctx context.Context, productID, limit int) (*recommend.Result, error)
	Trending(ctx context.Context, limit int) (*recommend.Result, error)
	Train(ctx context.Context) error
	Status() recommend.Status
}

// SegmentEngine is the segmentation surface the handlers need.
// Satisfied by *segment.Engine.
type SegmentEngine interface {
	Segment(records []segment.RFMRecord, k int) []segment.RFMRecord
	Status() segment.Status
}

// ForecastEngine is the forecasting surface the handlers need.
// Satisfied by *forecast.Engine.
type ForecastEngine interface {
	Forecast(ctx context.Context, productID, horizonDays int) (*forecast.Series, error)
	InventoryRecommendations(ctx context.Context) ([]forecast.InventoryAdvice, error)
}

// HealthStore is the store surface for health checks.
type HealthStore interface {
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (*store.Stats, error)
}

// ModelRegistry is the artifact registry surface for status reporting.
type ModelRegistry interface {
	Current(task registry.Task) (*registry.Artifact, error)
	State(task registry.Task, staleAfter time.Duration) (string, error)
}

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	recommend RecommendEngine
	segment   SegmentEngine
	forecast  ForecastEngine
	store     HealthStore
	registry  ModelRegistry
	cfg       *config.Config
}

// NewHandler creates the handler set.
func NewHandler(rec RecommendEngine, seg SegmentEngine, fc ForecastEngine, st HealthStore, reg ModelRegistry, cfg *config.Config) *Handler {
	return &Handler{
		recommend: rec,
		segment:   seg,
		forecast:  fc,
		store:     st,
		registry:  reg,
		cfg:       cfg,
	}
}

// handleUserRecommendations serves POST /ml/recommendations/user.
func (h *Handler) handleUserRecommendations(w http.ResponseWriter, r *http.Request) {
	var req UserRecommendationsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.recommend.ForUser(r.Context(), recommend.UserRequest{
		UserID:         req.UserID,
		Limit:          req.Limit,
		IncludeReasons: req.IncludeReasons,
	})
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(result)
}

// handleSimilarProducts serves POST /ml/recommendations/similar.
func (h *Handler) handleSimilarProducts(w http.ResponseWriter, r *http.Request) {
	var req SimilarProductsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.recommend.SimilarTo(r.Context(), req.ProductID, req.Limit)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(result)
}

// handleTrending serves GET /ml/recommendations/trending.
func (h *Handler) handleTrending(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			NewResponseWriter(w, r).BadRequest("limit must be a positive integer")
			return
		}
		limit = parsed
	}

	result, err := h.recommend.Trending(r.Context(), limit)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(result)
}

// recommendStatusResponse augments the engine status with the
// registry's lifecycle state and current artifact.
type recommendStatusResponse struct {
	recommend.Status
	Artifact *registry.Artifact `json:"artifact,omitempty"`
}

// handleRecommendStatus serves GET /ml/recommendations/status.
func (h *Handler) handleRecommendStatus(w http.ResponseWriter, r *http.Request) {
	resp := recommendStatusResponse{Status: h.recommend.Status()}

	// Staleness threshold: two missed retrain intervals.
	staleAfter := 2 * h.cfg.Recommend.TrainInterval
	if state, err := h.registry.State(registry.TaskRecommend, staleAfter); err == nil {
		if resp.Status.State == "ready" || state == registry.StateUntrained {
			resp.Status.State = state
		}
	}
	if artifact, err := h.registry.Current(registry.TaskRecommend); err == nil {
		resp.Artifact = artifact
	}

	NewResponseWriter(w, r).Success(resp)
}

// handleRecommendTrain serves POST /ml/recommendations/train. Training
// runs in the background; an immediate in-progress error maps to 409.
func (h *Handler) handleRecommendTrain(w http.ResponseWriter, r *http.Request) {
	errCh := make(chan error, 1)
	go func() {
		// Detach from the request context: training outlives the call.
		err := h.recommend.Train(context.WithoutCancel(r.Context()))
		if err != nil && !errors.Is(err, recommend.ErrTrainingInProgress) {
			logging.Error().Err(err).Msg("manual training failed")
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, recommend.ErrTrainingInProgress) {
			NewResponseWriter(w, r).Conflict(ErrCodeTrainingInProgress, "training already in progress")
			return
		}
		if err != nil {
			h.writeEngineError(w, r, err)
			return
		}
		NewResponseWriter(w, r).Success(map[string]string{"status": "trained"})
	case <-time.After(100 * time.Millisecond):
		NewResponseWriter(w, r).Accepted(map[string]string{"status": "training"})
	}
}

// segmentResponse is the body for POST /ml/segmentation/segment.
type segmentResponse struct {
	Customers    []segment.RFMRecord `json:"customers"`
	SegmentSizes map[string]int      `json:"segment_sizes"`
}

// handleSegment serves POST /ml/segmentation/segment.
func (h *Handler) handleSegment(w http.ResponseWriter, r *http.Request) {
	var req SegmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	records := make([]segment.RFMRecord, len(req.Customers))
	for i, c := range req.Customers {
		records[i] = segment.RFMRecord{
			CustomerID:  c.CustomerID,
			RecencyDays: c.RecencyDays,
			Frequency:   c.Frequency,
			Monetary:    c.Monetary,
		}
	}

	segmented := h.segment.Segment(records, req.Clusters)

	sizes := make(map[string]int)
	for _, rec := range segmented {
		sizes[rec.SegmentName]++
	}

	NewResponseWriter(w, r).Success(segmentResponse{
		Customers:    segmented,
		SegmentSizes: sizes,
	})
}

// handleSegmentDefinitions serves GET /ml/segmentation/segments.
func (h *Handler) handleSegmentDefinitions(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"segments": segment.Definitions(),
	})
}

// handleDemandForecast serves POST /ml/forecasting/demand.
func (h *Handler) handleDemandForecast(w http.ResponseWriter, r *http.Request) {
	var req DemandForecastRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	series, err := h.forecast.Forecast(r.Context(), req.ProductID, req.HorizonDays)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(series)
}

// handleInventoryRecommendations serves GET /ml/forecasting/inventory-recommendations.
func (h *Handler) handleInventoryRecommendations(w http.ResponseWriter, r *http.Request) {
	advice, err := h.forecast.InventoryRecommendations(r.Context())
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"recommendations": advice,
	})
}

// handleSentiment serves POST /ml/sentiment/analyze.
func (h *Handler) handleSentiment(w http.ResponseWriter, r *http.Request) {
	var req SentimentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	reviews := make([]sentiment.Review, len(req.Reviews))
	for i, rev := range req.Reviews {
		reviews[i] = sentiment.Review{ReviewID: rev.ReviewID, Text: rev.Text}
	}

	NewResponseWriter(w, r).Success(map[string]interface{}{
		"results": sentiment.Analyze(reviews),
	})
}

// healthResponse is the body for GET /health.
type healthResponse struct {
	Status string                 `json:"status"`
	Store  *store.Stats           `json:"store,omitempty"`
	Models map[string]string      `json:"models"`
	Detail map[string]interface{} `json:"detail,omitempty"`
}

// handleHealth serves GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Models: map[string]string{}}

	if err := h.store.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Detail = map[string]interface{}{"store": err.Error()}
	} else if stats, err := h.store.Stats(r.Context()); err == nil {
		resp.Store = stats
	}

	for task, interval := range map[registry.Task]time.Duration{
		registry.TaskRecommend: h.cfg.Recommend.TrainInterval,
		registry.TaskSegment:   h.cfg.Segment.TrainInterval,
		registry.TaskForecast:  h.cfg.Forecast.TrainInterval,
	} {
		state, err := h.registry.State(task, 2*interval)
		if err != nil {
			state = "unknown"
		}
		resp.Models[string(task)] = state
	}

	rw := NewResponseWriter(w, r)
	if resp.Status != "ok" {
		rw.writeJSON(http.StatusServiceUnavailable, APIResponse{Success: false, Data: resp, Meta: rw.meta()})
		return
	}
	rw.Success(resp)
}

// handleHealthLive serves GET /health/live.
func (h *Handler) handleHealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// handleHealthReady serves GET /health/ready.
func (h *Handler) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		NewResponseWriter(w, r).ServiceUnavailable(ErrCodeServiceUnavailable, "store not reachable")
		return
	}
	NewResponseWriter(w, r).Success(map[string]string{"status": "ready"})
}

// writeEngineError maps engine errors to HTTP responses.
func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)
	switch {
	case errors.Is(err, recommend.ErrNotFound) || errors.Is(err, forecast.ErrNotFound):
		rw.NotFound(err.Error())
	case errors.Is(err, forecast.ErrInvalidHorizon):
		rw.Error(http.StatusBadRequest, ErrCodeInvalidHorizon, err.Error())
	case errors.Is(err, forecast.ErrInsufficientHistory) || errors.Is(err, recommend.ErrInsufficientData):
		rw.UnprocessableEntity(ErrCodeInsufficientData, err.Error())
	case errors.Is(err, recommend.ErrModelUnavailable):
		rw.ServiceUnavailable(ErrCodeModelUnavailable, "model not trained yet")
	case errors.Is(err, recommend.ErrTrainingInProgress) || errors.Is(err, segment.ErrTrainingInProgress):
		rw.Conflict(ErrCodeTrainingInProgress, err.Error())
	default:
		logging.CtxErr(r.Context(), err).Msg("request failed")
		rw.InternalError("an internal error occurred")
	}
}
