package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"sari-backend/internal/services"
	"sari-backend/pkg/utils"
)

type DashboardHandler struct {
	Service *services.DashboardService
	log     *logrus.Entry
}

func NewDashboardHandler(s *services.DashboardService, logger *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{Service: s, log: logger.WithField("component", "dashboard")}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	utils.JSON(w, http.StatusOK, stats)
}
