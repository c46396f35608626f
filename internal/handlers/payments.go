package handlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/entrenar-app/backend_entrenadores/internal/models"
	"github.com/entrenar-app/backend_entrenadores/internal/services/hires"
	"github.com/entrenar-app/backend_entrenadores/internal/services/mercadopago"
)

// webhookDedupTTL bounds how long a processed payment id blocks replays.
const webhookDedupTTL = 24 * time.Hour

type PaymentHandler struct {
	DB    *gorm.DB
	Hires *hires.Service
	MP    *mercadopago.Client
	RDB   *redis.Client
}

func NewPaymentHandler(db *gorm.DB, hiresSvc *hires.Service, mp *mercadopago.Client, rdb *redis.Client) *PaymentHandler {
	return &PaymentHandler{DB: db, Hires: hiresSvc, MP: mp, RDB: rdb}
}

type CreatePreferenceReq struct {
	HireID string `json:"hire_id"`
}

// CreatePreference builds the checkout redirect for a hire the caller owns.
func (h *PaymentHandler) CreatePreference(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req CreatePreferenceReq
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

	hire, err := h.Hires.GetByID(c.Context(), hireID, uid)
	if err != nil {
		return respondError(c, err)
	}
	if hire.ClientID != uid {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "forbidden",
		})
	}
	if hire.PaymentState == models.PaymentStateSuccessful {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "hire is already paid",
		})
	}
	if hire.Service == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "internal server error",
		})
	}

	var client models.User
	if err := h.DB.First(&client, "id = ?", uid).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "internal server error",
		})
	}

	title := "Entrenamiento"
	if hire.Service != nil && hire.Service.Category != nil {
		title = hire.Service.Category.Name
	}

	pref, err := h.MP.CreatePreference(hire.ID.String(), title, hire.Service.Price, client.FullName(), client.Email)
	if err != nil {
		log.Println("payments: create preference:", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": "payment provider unavailable",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"preference_id": pref.ID,
			"init_point":    pref.InitPoint,
		},
	})
}

type webhookBody struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// Webhook receives payment events. The event itself is never trusted: only
// the signature header gates entry, then the payment is re-fetched from the
// provider API and that copy drives the update. Returning non-2xx makes the
// provider retry.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	if c.Get("x-signature") == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "missing signature",
		})
	}

	var body webhookBody
	_ = c.BodyParser(&body)

	paymentID := body.Data.ID.String()
	if paymentID == "" {
		paymentID = c.Query("data.id", c.Query("id"))
	}
	topic := body.Type
	if topic == "" {
		topic = c.Query("type", c.Query("topic"))
	}

	if topic != "payment" || paymentID == "" {
		// not a payment event, nothing to do
		return c.SendStatus(fiber.StatusOK)
	}

	payment, err := h.MP.GetPayment(paymentID)
	if err != nil {
		log.Println("payments: fetch payment:", err)
		return c.SendStatus(fiber.StatusBadGateway)
	}

	hireID, err := uuid.Parse(payment.ExternalReference)
	if err != nil {
		log.Printf("payments: payment %s: bad external reference %q", paymentID, payment.ExternalReference)
		return c.SendStatus(fiber.StatusOK)
	}

	state, ok := mapPaymentStatus(payment.Status)
	if !ok {
		log.Printf("payments: payment %s: ignoring status %q", paymentID, payment.Status)
		return c.SendStatus(fiber.StatusOK)
	}

	// The provider re-notifies the same payment id as it progresses
	// (pending -> approved), so the claim is per payment AND fetched status:
	// replays of one status ack without re-applying, progressions go through.
	dedupKey := "mp:webhook:" + paymentID + ":" + payment.Status
	claimed, err := h.RDB.SetNX(context.Background(), dedupKey, 1, webhookDedupTTL).Result()
	if err != nil {
		log.Println("payments: webhook dedup:", err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	if !claimed {
		return c.SendStatus(fiber.StatusOK)
	}

	release := func() {
		h.RDB.Del(context.Background(), dedupKey)
	}

	meta := hires.PaymentMeta{
		PaymentID: payment.ID.String(),
		Method:    payment.PaymentTypeID,
		PaidAt:    payment.DateApproved,
		Raw:       payment.Raw,
	}
	if err := h.Hires.UpdatePaymentState(context.Background(), hireID, state, meta); err != nil {
		log.Println("payments: update payment state:", err)
		release()
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	log.Printf("payments: hire %s payment %s -> %s", hireID, paymentID, state)
	return c.SendStatus(fiber.StatusOK)
}

func mapPaymentStatus(status string) (models.PaymentState, bool) {
	switch status {
	case "approved":
		return models.PaymentStateSuccessful, true
	case "rejected", "cancelled":
		return models.PaymentStateFailed, true
	case "pending", "in_process", "authorized":
		return models.PaymentStatePending, true
	default:
		return "", false
	}
}
