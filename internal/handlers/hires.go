package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/entrenar-app/backend_entrenadores/internal/models"
	"github.com/entrenar-app/backend_entrenadores/internal/realtime"
	"github.com/entrenar-app/backend_entrenadores/internal/services/hires"
)

type HireHandler struct {
	DB    *gorm.DB
	Hires *hires.Service
	Hub   *realtime.Hub
}

func NewHireHandler(db *gorm.DB, svc *hires.Service, hub *realtime.Hub) *HireHandler {
	return &HireHandler{DB: db, Hires: svc, Hub: hub}
}

type CreateHireReq struct {
	ServiceID uint `json:"service_id"`
}

func (h *HireHandler) Create(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req CreateHireReq
	if err := c.BodyParser(&req); err != nil || req.ServiceID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "service_id is required",
		})
	}

	hire, err := h.Hires.Create(c.Context(), uid, req.ServiceID)
	if err != nil {
		return respondError(c, err)
	}

	if hire.Service != nil {
		h.Hub.SendToUser(hire.Service.TrainerID, fiber.Map{
			"type":    "hire_requested",
			"hire_id": hire.ID.String(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    hire,
	})
}

func (h *HireHandler) List(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	list, err := h.Hires.ListByUser(c.Context(), uid)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    list,
	})
}

func (h *HireHandler) Get(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	hireID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid hire id",
		})
	}

	hire, err := h.Hires.GetByID(c.Context(), hireID, uid)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    hire,
	})
}

type UpdateHireStateReq struct {
	State string `json:"state"`
}

func (h *HireHandler) UpdateState(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	hireID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid hire id",
		})
	}

	var req UpdateHireStateReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	newState := models.HireState(strings.ToLower(strings.TrimSpace(req.State)))

	if err := h.Hires.UpdateState(c.Context(), hireID, newState, uid); err != nil {
		return respondError(c, err)
	}

	hire, err := h.Hires.GetByID(c.Context(), hireID, uid)
	if err != nil {
		return respondError(c, err)
	}

	if hire.Service != nil {
		h.Hub.SendToHire(hire.ClientID, hire.Service.TrainerID, fiber.Map{
			"type":    "hire_state_changed",
			"hire_id": hire.ID.String(),
			"state":   hire.State,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    hire,
	})
}

// Complete is the trainer-only shortcut for the accepted -> completed
// transition.
func (h *HireHandler) Complete(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	hireID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid hire id",
		})
	}

	var trainer models.User
	if err := h.DB.First(&trainer, "id = ? AND deleted = false", uid).Error; err != nil {
		return fiber.ErrUnauthorized
	}

	if err := h.Hires.Complete(c.Context(), hireID, &trainer); err != nil {
		return respondError(c, err)
	}

	hire, err := h.Hires.GetByID(c.Context(), hireID, uid)
	if err != nil {
		return respondError(c, err)
	}

	h.Hub.SendToUser(hire.ClientID, fiber.Map{
		"type":    "hire_state_changed",
		"hire_id": hire.ID.String(),
		"state":   hire.State,
	})

	return c.JSON(fiber.Map{
		"success": true,
		"data":    hire,
	})
}
