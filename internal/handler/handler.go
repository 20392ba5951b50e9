// Package handler provides HTTP request handlers for the application.
package handler

import (
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/Garrettc123/ueep-ha-system/internal/middleware"
	"github.com/Garrettc123/ueep-ha-system/internal/repository"
	"github.com/Garrettc123/ueep-ha-system/internal/service"
)

const (
	errorCodeEntryNotFound         = "ENTRY_NOT_FOUND"
	errorCodeDependencyUnavailable = "DEPENDENCY_UNAVAILABLE"
	errorCodeInvalidRequest        = "INVALID_REQUEST"
)

const (
	errorMessageEntryNotFound         = "No entry exists for the requested key"
	errorMessageDependencyUnavailable = "A backing dependency is unavailable, try again later"
	errorMessageInvalidBody           = "Request body must be JSON with a non-empty value field"
	errorMessageFailedToFetch         = "Failed to fetch data"
)

// ServiceInfo identifies the running instance in responses.
type ServiceInfo struct {
	Name        string
	Version     string
	Environment string
	Node        string
}

type Handler struct {
	service *service.Service
	info    ServiceInfo
	logger  *zap.Logger

	requestCount atomic.Int64
}

// NewHandler creates a new handler instance.
func NewHandler(service *service.Service, info ServiceInfo, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		info:    info,
		logger:  logger,
	}
}

// CountRequests tallies every request served by this instance. The running
// total is reported by Index.
func (h *Handler) CountRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.requestCount.Add(1)
		next.ServeHTTP(w, r)
	})
}

// IndexResponse describes the instance serving the request.
type IndexResponse struct {
	Service      string    `json:"service"`
	Version      string    `json:"version"`
	Environment  string    `json:"environment"`
	Node         string    `json:"node"`
	Status       string    `json:"status"`
	RequestCount int64     `json:"request_count"`
	Timestamp    time.Time `json:"timestamp"`
}

// Index reports instance identity and the per-instance request counter.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, IndexResponse{
		Service:      h.info.Name,
		Version:      h.info.Version,
		Environment:  h.info.Environment,
		Node:         h.info.Node,
		Status:       "operational",
		RequestCount: h.requestCount.Load(),
		Timestamp:    time.Now().UTC(),
	})
}

// HealthResponse is the aggregated health verdict.
type HealthResponse struct {
	Status    string                              `json:"status"`
	Node      string                              `json:"node"`
	Checks    map[string]service.DependencyStatus `json:"checks"`
	Breakers  map[string]string                   `json:"breakers"`
	Timestamp time.Time                           `json:"timestamp"`
}

// Health probes every dependency through its breaker and reports the
// aggregate verdict. Unhealthy maps to 503 so load balancers rotate the
// instance out.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.service.Health.Check(r.Context())

	verdict := "healthy"
	if !status.Healthy {
		verdict = "unhealthy"
		render.Status(r, http.StatusServiceUnavailable)
	}

	render.JSON(w, r, HealthResponse{
		Status:    verdict,
		Node:      h.info.Node,
		Checks:    status.Checks,
		Breakers:  status.Breakers,
		Timestamp: time.Now().UTC(),
	})
}

// Ready always answers 200. Readiness is decided by the health endpoint,
// this one only confirms the process accepts traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ready"})
}

// DataResponse carries a fetched value and where it came from.
type DataResponse struct {
	Key       string         `json:"key"`
	Data      string         `json:"data"`
	Source    service.Source `json:"source"`
	Node      string         `json:"node"`
	Timestamp time.Time      `json:"timestamp"`
}

// GetData serves a keyed value cache-first with store fallback.
func (h *Handler) GetData(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	result, err := h.service.Data.Fetch(r.Context(), key)
	if err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			h.sendError(w, r, http.StatusNotFound, errorCodeEntryNotFound, errorMessageEntryNotFound)
			return
		}

		if errors.Is(err, service.ErrDependencyUnavailable) {
			h.sendError(w, r, http.StatusServiceUnavailable, errorCodeDependencyUnavailable, errorMessageDependencyUnavailable)
			return
		}

		h.logger.Error("Failed to fetch data",
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.String("key", key),
			zap.Error(err))
		h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, errorMessageFailedToFetch)
		return
	}

	render.JSON(w, r, DataResponse{
		Key:       key,
		Data:      result.Value,
		Source:    result.Source,
		Node:      h.info.Node,
		Timestamp: time.Now().UTC(),
	})
}

// StoreRequest is the PUT body for storing a value.
type StoreRequest struct {
	Value string `json:"value"`
}

// StoreResponse confirms a stored value.
type StoreResponse struct {
	Key       string    `json:"key"`
	Status    string    `json:"status"`
	Node      string    `json:"node"`
	Timestamp time.Time `json:"timestamp"`
}

// PutData writes a keyed value through the store and repopulates the cache.
func (h *Handler) PutData(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var body StoreRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil || strings.TrimSpace(body.Value) == "" {
		h.sendError(w, r, http.StatusBadRequest, errorCodeInvalidRequest, errorMessageInvalidBody)
		return
	}

	if err := h.service.Data.Store(r.Context(), key, body.Value); err != nil {
		if errors.Is(err, service.ErrDependencyUnavailable) {
			h.sendError(w, r, http.StatusServiceUnavailable, errorCodeDependencyUnavailable, errorMessageDependencyUnavailable)
			return
		}

		h.logger.Error("Failed to store data",
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.String("key", key),
			zap.Error(err))
		h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, errorMessageFailedToFetch)
		return
	}

	render.JSON(w, r, StoreResponse{
		Key:       key,
		Status:    "stored",
		Node:      h.info.Node,
		Timestamp: time.Now().UTC(),
	})
}

// ErrorResponse is the JSON error envelope shared by every handler.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *Handler) sendError(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string) {
	render.Status(r, statusCode)
	render.JSON(w, r, ErrorResponse{
		Error:     errorCode,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}
