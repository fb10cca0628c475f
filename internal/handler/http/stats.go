package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/uniwork/uniwork-backend-go/internal/domain/stats"
	"github.com/uniwork/uniwork-backend-go/internal/handler/http/response"
)

type StatsHandler interface {
	GetMyStats(w http.ResponseWriter, r *http.Request)
	GetEmployeeStats(w http.ResponseWriter, r *http.Request)
}

type statsHandlerImpl struct {
	statsService stats.StatsService
}

func NewStatsHandler(statsService stats.StatsService) StatsHandler {
	return &statsHandlerImpl{
		statsService: statsService,
	}
}

// GetMyStats implements StatsHandler.
func (h *statsHandlerImpl) GetMyStats(w http.ResponseWriter, r *http.Request) {
	req := stats.GetStatsRequest{
		Currency: r.URL.Query().Get("currency"),
	}

	result, err := h.statsService.GetMyStats(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetEmployeeStats implements StatsHandler.
func (h *statsHandlerImpl) GetEmployeeStats(w http.ResponseWriter, r *http.Request) {
	req := stats.GetStatsRequest{
		UserID:   chi.URLParam(r, "userId"),
		Currency: r.URL.Query().Get("currency"),
	}

	result, err := h.statsService.GetEmployeeStats(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
