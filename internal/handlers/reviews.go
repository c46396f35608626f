package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/entrenar-app/backend_entrenadores/internal/models"
	"github.com/entrenar-app/backend_entrenadores/internal/services/reviews"
)

type ReviewHandler struct {
	Reviews *reviews.Service
}

func NewReviewHandler(svc *reviews.Service) *ReviewHandler {
	return &ReviewHandler{Reviews: svc}
}

type CreateReviewReq struct {
	HireID  string `json:"hire_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req CreateReviewReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	hireID, err := uuid.Parse(req.HireID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid hire id",
		})
	}

	review, err := h.Reviews.Create(c.Context(), hireID, uid, req.Rating, req.Comment)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    review,
	})
}

type ReviewResponseReq struct {
	Response string `json:"response"`
}

func (h *ReviewHandler) Respond(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	reviewID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid review id",
		})
	}

	var req ReviewResponseReq
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Response) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "response is required",
		})
	}

	if err := h.Reviews.AddResponse(c.Context(), reviewID, uid, req.Response); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	reviewID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid review id",
		})
	}

	isAdmin := getRole(c) == string(models.RoleAdmin)
	if err := h.Reviews.Delete(c.Context(), reviewID, uid, isAdmin); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *ReviewHandler) ListByTrainer(c *fiber.Ctx) error {
	trainerID, err := uuid.Parse(c.Params("trainerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid trainer id",
		})
	}

	list, err := h.Reviews.ListByTrainer(c.Context(), trainerID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    list,
	})
}

func (h *ReviewHandler) ListMine(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	list, err := h.Reviews.ListByClient(c.Context(), uid)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    list,
	})
}
