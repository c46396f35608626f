package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/entrenar-app/backend_entrenadores/internal/models"
	"github.com/entrenar-app/backend_entrenadores/internal/realtime"
	"github.com/entrenar-app/backend_entrenadores/internal/services/chat"
	"github.com/entrenar-app/backend_entrenadores/internal/utils"
)

// maxUploadBytes caps shared files at 10 MiB.
const maxUploadBytes = 10 << 20

type ChatHandler struct {
	DB        *gorm.DB
	Chat      *chat.Service
	Hub       *realtime.Hub
	RDB       *redis.Client
	JWTSecret string
}

func NewChatHandler(db *gorm.DB, svc *chat.Service, hub *realtime.Hub, rdb *redis.Client, jwtSecret string) *ChatHandler {
	return &ChatHandler{DB: db, Chat: svc, Hub: hub, RDB: rdb, JWTSecret: jwtSecret}
}

func (h *ChatHandler) hireParties(hireID uuid.UUID) (clientID, trainerID uuid.UUID, ok bool) {
	var hire models.Hire
	if err := h.DB.Preload("Service").First(&hire, "id = ?", hireID).Error; err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	if hire.Service == nil {
		return uuid.Nil, uuid.Nil, false
	}
	return hire.ClientID, hire.Service.TrainerID, true
}

func (h *ChatHandler) notify(hireID, senderID uuid.UUID, event fiber.Map) {
	clientID, trainerID, ok := h.hireParties(hireID)
	if !ok {
		return
	}

	h.Hub.SendToHire(clientID, trainerID, event)

	recipient := clientID
	if senderID == clientID {
		recipient = trainerID
	}
	payload, _ := json.Marshal(event)
	if err := h.RDB.Publish(context.Background(), "notifications:"+recipient.String(), payload).Err(); err != nil {
		log.Println("chat: redis publish:", err)
	}
}

type SendMessageReq struct {
	Text string `json:"text"`
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
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

	var req SendMessageReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	msg, err := h.Chat.PostMessage(c.Context(), hireID, uid, req.Text)
	if err != nil {
		return respondError(c, err)
	}

	h.notify(hireID, uid, fiber.Map{
		"type":      "chat_message",
		"hire_id":   hireID.String(),
		"sender_id": uid.String(),
		"text":      msg.Text,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    msg,
	})
}

func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
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

	msgs, err := h.Chat.ListMessages(c.Context(), hireID, uid)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    msgs,
	})
}

func (h *ChatHandler) UploadFile(c *fiber.Ctx) error {
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

	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "file is required",
		})
	}
	if fh.Size > maxUploadBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"success": false,
			"message": "file too large",
		})
	}

	src, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "could not read file",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "could not read file",
		})
	}
	if len(data) > maxUploadBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"success": false,
			"message": "file too large",
		})
	}

	ref, err := h.Chat.UploadFile(c.Context(), hireID, uid, data, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		return respondError(c, err)
	}

	h.notify(hireID, uid, fiber.Map{
		"type":      "file_shared",
		"hire_id":   hireID.String(),
		"sender_id": uid.String(),
		"file_name": ref.OriginalName,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    ref,
	})
}

func (h *ChatHandler) GetFiles(c *fiber.Ctx) error {
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

	files, err := h.Chat.ListFiles(c.Context(), hireID, uid)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    files,
	})
}

// WebSocketHandler keeps a push connection open; it authenticates via a
// ?token= query param because browsers cannot set headers on WebSocket
// upgrades.
func (h *ChatHandler) WebSocketHandler(c *websocket.Conn) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		log.Println("websocket: token missing")
		c.Close()
		return
	}

	claims, err := utils.ParseJWT(h.JWTSecret, token)
	if err != nil {
		log.Println("websocket: invalid token:", err)
		c.Close()
		return
	}
	userUUID, err := uuid.Parse(claims.UserID)
	if err != nil {
		log.Println("websocket: invalid user id:", err)
		c.Close()
		return
	}

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: userUUID,
		Send:   make(chan []byte, 256),
	}

	h.Hub.RegisterClient(client)
	defer h.Hub.UnregisterClient(client)

	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("websocket write:", err)
				return
			}
		}
	}()

	for {
		var payload map[string]interface{}
		if err := c.ReadJSON(&payload); err != nil {
			break
		}
		if t, ok := payload["type"].(string); ok && t == "pong" {
			continue
		}
	}
}
