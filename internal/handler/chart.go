package handler

import (
	"log/slog"
	"net/http"

	"vizboard/internal/model"
	"vizboard/internal/store"
)

type ChartHandler struct {
	chartStore *store.ChartStore
	logger     *slog.Logger
}

func NewChartHandler(cs *store.ChartStore, logger *slog.Logger) *ChartHandler {
	return &ChartHandler{chartStore: cs, logger: logger}
}

// Data serves the filtered dataset. All filter params are optional; an
// absent param matches everything. The endpoint is public: access control
// for the dashboard lives client-side, in front of the charts, not here.
func (h *ChartHandler) Data(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.QueryFilter{
		AgeRange:  q.Get("ageRange"),
		Gender:    q.Get("gender"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	}

	records, err := h.chartStore.Query(filter)
	if err != nil {
		h.logger.Error("query chart data", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	if records == nil {
		records = []model.ChartRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}
