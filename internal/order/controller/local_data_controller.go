package controller

import (
	"context"
	"net/http"

	"tableside/internal/dto"
	apperrors "tableside/internal/errors"
	"tableside/internal/server/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type LocalDataService interface {
	ClearAllData(ctx context.Context) (*dto.ClearedData, error)
}

type LocalDataController struct {
	service LocalDataService
	logger  *zap.Logger
}

func NewLocalDataController(service LocalDataService, logger *zap.Logger) *LocalDataController {
	return &LocalDataController{
		service: service,
		logger:  logger,
	}
}

func (c *LocalDataController) Routes(r chi.Router) {
	r.Delete("/local-data", c.ClearAll)
}

// ClearAll wipes carts, local orders and the sync queue. Unsynced orders are
// lost, so the request must carry confirm=true.
func (c *LocalDataController) ClearAll(w http.ResponseWriter, r *http.Request) {
	traceID := response.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	if r.URL.Query().Get("confirm") != "true" {
		response.WriteValidationError(w, traceID, "confirmation required", logger, apperrors.ValidationDetail{
			Field:   "confirm",
			Message: "pass confirm=true to discard all local data, including unsynced orders",
		})
		return
	}

	cleared, err := c.service.ClearAllData(r.Context())
	if err != nil {
		response.WriteError(w, traceID, err, logger)
		return
	}

	response.WriteJSON(w, http.StatusOK, dto.ClearLocalDataResponse{TraceID: traceID, ClearedData: *cleared}, logger)
}
