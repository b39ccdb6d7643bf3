package handler

import (
	"net/http"

	"taskpilot/internal/db"
	"taskpilot/internal/reminder"

	"gorm.io/gorm"
)

type HealthHandler struct {
	DB        *gorm.DB
	Scheduler *reminder.Scheduler
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	database := "up"
	status := http.StatusOK
	if !db.Healthy(h.DB) {
		database = "down"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"status":    statusWord(status),
		"database":  database,
		"scheduler": h.Scheduler.Status(),
	})
}

func statusWord(code int) string {
	if code == http.StatusOK {
		return "healthy"
	}
	return "degraded"
}
