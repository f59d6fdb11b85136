package web

import (
	"net/http"
	"time"
)

type handler struct {
	deps Deps
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if h.deps.Status != nil && !h.deps.Status.Alive() {
		status = "stopping"
	}

	uptime := time.Duration(0)
	if h.deps.Status != nil {
		uptime = h.deps.Status.Uptime()
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status: status,
		Uptime: uptime.Round(time.Second).String(),
	})
}
