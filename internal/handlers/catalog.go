package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/entrenar-app/backend_entrenadores/internal/models"
)

type CatalogHandler struct {
	DB *gorm.DB
}

func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{DB: db}
}

func (h *CatalogHandler) GetCategories(c *fiber.Ctx) error {
	var categories []models.Category
	if err := h.DB.Order("name ASC").Find(&categories).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "could not list categories",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    categories,
	})
}

func (h *CatalogHandler) GetZones(c *fiber.Ctx) error {
	var zones []models.Zone
	if err := h.DB.Order("name ASC").Find(&zones).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "could not list zones",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    zones,
	})
}
