package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/entrenar-app/backend_entrenadores/internal/services/stats"
)

type StatsHandler struct {
	Stats *stats.Service
}

func NewStatsHandler(svc *stats.Service) *StatsHandler {
	return &StatsHandler{Stats: svc}
}

// Dashboard returns the caller's trainer metrics.
func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	st, err := h.Stats.ForTrainer(c.Context(), uid)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    st,
	})
}
