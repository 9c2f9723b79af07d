package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"hybridnews/internal/handler/http/respond"
	"hybridnews/internal/usecase/topic"
)

// ScheduleRequest is the POST /admin/schedule body.
type ScheduleRequest struct {
	IntervalMinutes int `json:"interval_minutes"`
}

// ScheduleHandler handles POST /admin/schedule (floor of 5 minutes
// between ticks).
type ScheduleHandler struct {
	Scheduler *topic.Scheduler
}

// ServeHTTP validates and applies a new Topic Scheduler tick interval.
//
// @Summary      Reconfigure the topic scheduler tick interval
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body body ScheduleRequest true "new interval"
// @Success      200 {string} string "ok"
// @Failure      400 {string} string "interval below minimum"
// @Router       /admin/schedule [post]
func (h ScheduleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.Scheduler.Reschedule(req.IntervalMinutes); err != nil {
		if errors.Is(err, topic.ErrRescheduleTooFrequent) {
			respond.Error(w, http.StatusBadRequest, err)
			return
		}
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]int{"interval_minutes": req.IntervalMinutes})
}
