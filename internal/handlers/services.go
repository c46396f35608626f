package handlers

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/entrenar-app/backend_entrenadores/internal/models"
	"github.com/entrenar-app/backend_entrenadores/internal/services/stats"
)

type ServiceHandler struct {
	DB    *gorm.DB
	Stats *stats.Service
}

func NewServiceHandler(db *gorm.DB, st *stats.Service) *ServiceHandler {
	return &ServiceHandler{DB: db, Stats: st}
}

type ServiceReq struct {
	CategoryID  uint   `json:"category_id"`
	ZoneID      uint   `json:"zone_id"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	DurationMin int    `json:"duration_min"`
	Language    string `json:"language"`
	Modality    string `json:"modality"`
	StartAt     string `json:"start_at"`
	EndAt       string `json:"end_at"`
}

func (h *ServiceHandler) Create(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req ServiceReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	errs := FieldErrors{}
	if req.CategoryID == 0 {
		errs.Add("category_id", "Category is required")
	}
	if req.ZoneID == 0 {
		errs.Add("zone_id", "Zone is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		errs.Add("description", "Description is required")
	}
	if req.Price <= 0 {
		errs.Add("price", "Price must be positive")
	}
	if req.DurationMin <= 0 {
		errs.Add("duration_min", "Duration must be positive")
	}

	modality := models.Modality(strings.ToLower(strings.TrimSpace(req.Modality)))
	if modality != models.ModalityOnline && modality != models.ModalityInPerson {
		errs.Add("modality", "Modality must be online or presencial")
	}

	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		errs.Add("start_at", "Start must be RFC3339")
	}
	endAt, err := time.Parse(time.RFC3339, req.EndAt)
	if err != nil {
		errs.Add("end_at", "End must be RFC3339")
	} else if !endAt.After(startAt) {
		errs.Add("end_at", "End must be after start")
	}

	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	svc := models.Service{
		TrainerID:   uid,
		CategoryID:  req.CategoryID,
		ZoneID:      req.ZoneID,
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		DurationMin: req.DurationMin,
		Language:    strings.TrimSpace(req.Language),
		Modality:    modality,
		Active:      true,
		StartAt:     startAt,
		EndAt:       endAt,
	}
	if err := h.DB.Create(&svc).Error; err != nil {
		log.Println("service create:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "could not create service",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    svc,
	})
}

// ListPublic returns hireable services only: active and without a pending or
// accepted hire.
func (h *ServiceHandler) ListPublic(c *fiber.Ctx) error {
	q := h.DB.Model(&models.Service{}).
		Preload("Trainer").Preload("Category").Preload("Zone").
		Where("active = true").
		Where("NOT EXISTS (SELECT 1 FROM hires WHERE hires.service_id = services.id AND hires.state IN ?)",
			[]string{string(models.HireStatePending), string(models.HireStateAccepted)})

	if v := c.Query("category_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "invalid category_id",
			})
		}
		q = q.Where("category_id = ?", id)
	}
	if v := c.Query("zone_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "invalid zone_id",
			})
		}
		q = q.Where("zone_id = ?", id)
	}
	if v := c.Query("max_price"); v != "" {
		max, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "invalid max_price",
			})
		}
		q = q.Where("price <= ?", max)
	}
	if v := strings.ToLower(strings.TrimSpace(c.Query("modality"))); v != "" {
		q = q.Where("modality = ?", v)
	}
	if v := strings.TrimSpace(c.Query("language")); v != "" {
		q = q.Where("language = ?", v)
	}

	var services []models.Service
	if err := q.Order("created_at DESC").Find(&services).Error; err != nil {
		log.Println("service list:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "could not list services",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    services,
	})
}

func (h *ServiceHandler) GetDetail(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid service id",
		})
	}

	var svc models.Service
	err = h.DB.Preload("Trainer").Preload("Category").Preload("Zone").
		First(&svc, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "service not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "internal server error",
		})
	}

	var viewer *uuid.UUID
	if uid, err := getUserUUID(c); err == nil {
		viewer = &uid
	}
	if err := h.Stats.RecordView(c.Context(), svc.ID, viewer); err != nil {
		log.Println("service view:", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    svc,
	})
}

func (h *ServiceHandler) ListMine(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var services []models.Service
	err = h.DB.Preload("Category").Preload("Zone").
		Where("trainer_id = ?", uid).
		Order("created_at DESC").
		Find(&services).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "could not list services",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    services,
	})
}

// serviceUpdatable is the allow-list for PATCH; anything else in the body is
// rejected, never silently dropped.
var serviceUpdatable = map[string]bool{
	"category_id":  true,
	"zone_id":      true,
	"description":  true,
	"price":        true,
	"duration_min": true,
	"language":     true,
	"modality":     true,
	"active":       true,
	"start_at":     true,
	"end_at":       true,
}

// ServiceUpdateReq gives every updatable field its declared type; a body
// value of the wrong JSON type fails the decode before anything touches the
// database.
type ServiceUpdateReq struct {
	CategoryID  *uint   `json:"category_id"`
	ZoneID      *uint   `json:"zone_id"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	DurationMin *int    `json:"duration_min"`
	Language    *string `json:"language"`
	Modality    *string `json:"modality"`
	Active      *bool   `json:"active"`
	StartAt     *string `json:"start_at"`
	EndAt       *string `json:"end_at"`
}

func (h *ServiceHandler) Update(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid service id",
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
		if !serviceUpdatable[k] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "unknown field: " + k,
			})
		}
	}

	var req ServiceUpdateReq
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	var svc models.Service
	if err := h.DB.First(&svc, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "service not found",
		})
	}
	if svc.TrainerID != uid && getRole(c) != string(models.RoleAdmin) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "forbidden",
		})
	}

	updates, errs := validateServiceUpdate(&svc, &req)
	if len(errs) > 0 {
		return validationFail(c, errs)
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	if err := h.DB.Model(&svc).Updates(updates).Error; err != nil {
		log.Println("service update:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "could not update service",
		})
	}

	if err := h.DB.Preload("Category").Preload("Zone").First(&svc, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    svc,
	})
}

// validateServiceUpdate re-runs the create-path rules on every field present
// and returns the typed update map. The time window is checked against the
// merged result so a new start cannot slip past the existing end.
func validateServiceUpdate(svc *models.Service, req *ServiceUpdateReq) (map[string]interface{}, FieldErrors) {
	errs := FieldErrors{}
	updates := map[string]interface{}{}

	if req.CategoryID != nil {
		if *req.CategoryID == 0 {
			errs.Add("category_id", "Category is required")
		} else {
			updates["category_id"] = *req.CategoryID
		}
	}
	if req.ZoneID != nil {
		if *req.ZoneID == 0 {
			errs.Add("zone_id", "Zone is required")
		} else {
			updates["zone_id"] = *req.ZoneID
		}
	}
	if req.Description != nil {
		d := strings.TrimSpace(*req.Description)
		if d == "" {
			errs.Add("description", "Description is required")
		} else {
			updates["description"] = d
		}
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			errs.Add("price", "Price must be positive")
		} else {
			updates["price"] = *req.Price
		}
	}
	if req.DurationMin != nil {
		if *req.DurationMin <= 0 {
			errs.Add("duration_min", "Duration must be positive")
		} else {
			updates["duration_min"] = *req.DurationMin
		}
	}
	if req.Language != nil {
		updates["language"] = strings.TrimSpace(*req.Language)
	}
	if req.Modality != nil {
		m := models.Modality(strings.ToLower(strings.TrimSpace(*req.Modality)))
		if m != models.ModalityOnline && m != models.ModalityInPerson {
			errs.Add("modality", "Modality must be online or presencial")
		} else {
			updates["modality"] = m
		}
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	startAt, endAt := svc.StartAt, svc.EndAt
	if req.StartAt != nil {
		t, err := time.Parse(time.RFC3339, *req.StartAt)
		if err != nil {
			errs.Add("start_at", "Start must be RFC3339")
		} else {
			startAt = t
			updates["start_at"] = t
		}
	}
	if req.EndAt != nil {
		t, err := time.Parse(time.RFC3339, *req.EndAt)
		if err != nil {
			errs.Add("end_at", "End must be RFC3339")
		} else {
			endAt = t
			updates["end_at"] = t
		}
	}
	if (req.StartAt != nil || req.EndAt != nil) && len(errs) == 0 && !endAt.After(startAt) {
		errs.Add("end_at", "End must be after start")
	}

	return updates, errs
}

// Delete removes a service that was never hired. Services with hires stay so
// the hire history keeps its foreign keys.
func (h *ServiceHandler) Delete(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid service id",
		})
	}

	var svc models.Service
	if err := h.DB.First(&svc, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "service not found",
		})
	}
	if svc.TrainerID != uid && getRole(c) != string(models.RoleAdmin) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "forbidden",
		})
	}

	var hireCount int64
	if err := h.DB.Model(&models.Hire{}).Where("service_id = ?", id).Count(&hireCount).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "internal server error",
		})
	}
	if hireCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "service has hires and cannot be deleted",
		})
	}

	if err := h.DB.Delete(&svc).Error; err != nil {
		log.Println("service delete:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "could not delete service",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}
