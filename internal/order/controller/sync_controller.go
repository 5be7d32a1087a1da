package controller

import (
	"context"
	"net/http"
	"strconv"

	"tableside/internal/domain"
	"tableside/internal/dto"
	apperrors "tableside/internal/errors"
	"tableside/internal/server/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SyncUseCase interface {
	SyncPendingOrders(ctx context.Context) (*dto.SyncResult, error)
}

type SyncQueueService interface {
	ListPending(ctx context.Context) ([]domain.SyncQueueEntry, error)
	RetryEntry(ctx context.Context, id int64) (*domain.SyncQueueEntry, error)
}

type SyncController struct {
	useCase SyncUseCase
	queue   SyncQueueService
	logger  *zap.Logger
}

func NewSyncController(useCase SyncUseCase, queue SyncQueueService, logger *zap.Logger) *SyncController {
	return &SyncController{
		useCase: useCase,
		queue:   queue,
		logger:  logger,
	}
}

func (c *SyncController) Routes(r chi.Router) {
	r.Post("/sync", c.Sync)
	r.Get("/sync/entries", c.ListEntries)
	r.Post("/sync/entries/{id}/retry", c.RetryEntry)
}

// Sync runs a sweep on demand. A sweep already in progress yields 202 with
// skipped set.
func (c *SyncController) Sync(w http.ResponseWriter, r *http.Request) {
	traceID := response.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	result, err := c.useCase.SyncPendingOrders(r.Context())
	if err != nil {
		response.WriteError(w, traceID, err, logger)
		return
	}

	status := http.StatusOK
	if result.Skipped {
		status = http.StatusAccepted
	}

	response.WriteJSON(w, status, dto.SyncResponse{TraceID: traceID, SyncResult: *result}, logger)
}

func (c *SyncController) ListEntries(w http.ResponseWriter, r *http.Request) {
	traceID := response.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	entries, err := c.queue.ListPending(r.Context())
	if err != nil {
		response.WriteError(w, traceID, err, logger)
		return
	}

	response.WriteJSON(w, http.StatusOK, dto.SyncEntriesResponse{TraceID: traceID, Entries: entries}, logger)
}

func (c *SyncController) RetryEntry(w http.ResponseWriter, r *http.Request) {
	traceID := response.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.WriteValidationError(w, traceID, "invalid id", logger, apperrors.ValidationDetail{
			Field:   "id",
			Message: "id must be a positive integer",
		})
		return
	}

	entry, err := c.queue.RetryEntry(r.Context(), id)
	if err != nil {
		response.WriteError(w, traceID, err, logger)
		return
	}

	logger.Info("sync entry queued for retry", zap.Int64("entryId", id), zap.String("localId", entry.LocalID))
	response.WriteJSON(w, http.StatusOK, dto.SyncEntryResponse{TraceID: traceID, Entry: *entry}, logger)
}
