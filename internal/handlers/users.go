package handlers

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/entrenar-app/backend_entrenadores/internal/authz"
	"github.com/entrenar-app/backend_entrenadores/internal/models"
)

type UserHandler struct {
	DB *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{DB: db}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	var users []models.User
	if err := h.DB.Where("deleted = false").Order("created_at DESC").Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "could not list users",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    users,
	})
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid user id",
		})
	}
	if !authz.CanManageUser(targetID, uid, models.Role(getRole(c))) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "forbidden",
		})
	}

	var u models.User
	err = h.DB.Where("id = ? AND deleted = false", targetID).First(&u).Error
	if err == gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "user not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    u,
	})
}

// userUpdatable is the allow-list for PATCH; email, role and password move
// through their own flows, never this endpoint.
var userUpdatable = map[string]bool{
	"first_name": true,
	"last_name":  true,
	"birth_date": true,
}

// UserUpdateReq types every updatable field so wrong-typed JSON values fail
// the decode instead of reaching the database.
type UserUpdateReq struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	BirthDate *string `json:"birth_date"`
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid user id",
		})
	}
	if !authz.CanManageUser(targetID, uid, models.Role(getRole(c))) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "forbidden",
		})
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &raw); err != nil || len(raw) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	for k := range raw {
		if !userUpdatable[k] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "unknown field: " + k,
			})
		}
	}

	var req UserUpdateReq
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	errs := FieldErrors{}
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		name := strings.TrimSpace(*req.FirstName)
		if name == "" {
			errs.Add("first_name", "First name is required")
		} else {
			updates["first_name"] = name
		}
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.BirthDate != nil {
		t, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			errs.Add("birth_date", "Birth date must be YYYY-MM-DD")
		} else {
			updates["birth_date"] = t
		}
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	res := h.DB.Model(&models.User{}).
		Where("id = ? AND deleted = false", targetID).
		Updates(updates)
	if res.Error != nil {
		log.Println("user update:", res.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "could not update user",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "user not found",
		})
	}

	var u models.User
	if err := h.DB.First(&u, "id = ?", targetID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    u,
	})
}

// Delete soft-deletes; rows stay so hires and reviews keep their references.
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid user id",
		})
	}
	if !authz.CanManageUser(targetID, uid, models.Role(getRole(c))) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "forbidden",
		})
	}

	now := time.Now()
	res := h.DB.Model(&models.User{}).
		Where("id = ? AND deleted = false", targetID).
		Updates(map[string]interface{}{"deleted": true, "deleted_date": &now})
	if res.Error != nil {
		log.Println("user delete:", res.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "could not delete user",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "user not found",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}
