package handlers

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/entrenar-app/backend_entrenadores/internal/models"
	"github.com/entrenar-app/backend_entrenadores/internal/services/mailer"
	"github.com/entrenar-app/backend_entrenadores/internal/utils"
)

type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret string
	Expires   int
	Mailer    *mailer.Mailer
}

type RegisterReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"` // client / trainer (admin is seeded, never public)
	BirthDate string `json:"birth_date"`
}

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Validation error",
		"errors":  errs,
	})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)
	role := models.Role(strings.ToLower(strings.TrimSpace(req.Role)))

	errs := FieldErrors{}

	if firstName == "" {
		errs.Add("first_name", "First name is required")
	}
	if email == "" {
		errs.Add("email", "Email is required")
	} else if !strings.Contains(email, "@") {
		errs.Add("email", "Email format is invalid")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	} else if len(password) < 8 {
		errs.Add("password", "Password must be at least 8 characters")
	}
	if role != models.RoleClient && role != models.RoleTrainer {
		errs.Add("role", "Role must be client or trainer")
	}

	var birthDate *time.Time
	if bd := strings.TrimSpace(req.BirthDate); bd != "" {
		t, err := time.Parse("2006-01-02", bd)
		if err != nil {
			errs.Add("birth_date", "Birth date must be YYYY-MM-DD")
		} else {
			birthDate = &t
		}
	}

	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	var existing models.User
	if err := h.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		e := FieldErrors{}
		e.Add("email", "Email is already registered")
		return validationFail(c, e)
	} else if err != gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "internal server error",
		})
	}

	pw, err := utils.HashPassword(password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "could not process password",
		})
	}

	u := models.User{
		Role:         role,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: pw,
		BirthDate:    birthDate,
	}
	if err := h.DB.Create(&u).Error; err != nil {
		log.Println("register: create user:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "could not register",
		})
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), u.Email, h.Expires)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "could not sign token",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"token": token,
			"user":  u,
		},
	})
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var u models.User
	err := h.DB.Where("email = ? AND deleted = false", email).First(&u).Error
	if err == gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "invalid credentials",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "internal server error",
		})
	}

	if !utils.CheckPassword(u.PasswordHash, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "invalid credentials",
		})
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), u.Email, h.Expires)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "could not sign token",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"token": token,
			"user":  u,
		},
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var u models.User
	if err := h.DB.Where("id = ? AND deleted = false", uid).First(&u).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "user not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    u,
	})
}

type ChangePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req ChangePasswordReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	newPassword := strings.TrimSpace(req.NewPassword)
	if len(newPassword) < 8 {
		errs := FieldErrors{}
		errs.Add("new_password", "Password must be at least 8 characters")
		return validationFail(c, errs)
	}
	if newPassword == strings.TrimSpace(req.CurrentPassword) {
		errs := FieldErrors{}
		errs.Add("new_password", "New password must differ from the current one")
		return validationFail(c, errs)
	}

	var u models.User
	if err := h.DB.Where("id = ? AND deleted = false", uid).First(&u).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "user not found",
		})
	}
	if !utils.CheckPassword(u.PasswordHash, req.CurrentPassword) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "invalid credentials",
		})
	}

	pw, err := utils.HashPassword(newPassword)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "could not process password",
		})
	}
	if err := h.DB.Model(&u).Update("password_hash", pw).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "could not update password",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

const resetTokenTTL = time.Hour

func newResetToken() (raw, hash string) {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	raw = base64.RawURLEncoding.EncodeToString(b)
	sum := sha256.Sum256([]byte(raw))
	return raw, hex.EncodeToString(sum[:])
}

type ForgotPasswordReq struct {
	Email string `json:"email"`
}

// ForgotPassword always answers 200 for unknown emails so the endpoint cannot
// be used to probe which addresses exist.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	ok := fiber.Map{
		"success": true,
		"message": "If the email exists, a reset link was sent",
	}

	var u models.User
	err := h.DB.Where("email = ? AND deleted = false", email).First(&u).Error
	if err == gorm.ErrRecordNotFound {
		return c.JSON(ok)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "internal server error",
		})
	}

	raw, hash := newResetToken()
	prt := models.PasswordResetToken{
		UserID:    u.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if err := h.DB.Create(&prt).Error; err != nil {
		log.Println("forgot password: create token:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "internal server error",
		})
	}

	if err := h.Mailer.SendPasswordReset(u.Email, raw); err != nil {
		// a token whose mail never went out is unusable; drop it so the
		// caller can retry cleanly
		log.Println("forgot password: send mail:", err)
		if derr := h.DB.Delete(&models.PasswordResetToken{}, "id = ?", prt.ID).Error; derr != nil {
			log.Println("forgot password: drop unsent token:", derr)
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": "could not send reset email",
		})
	}

	return c.JSON(ok)
}

type ResetPasswordReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	if len(strings.TrimSpace(req.NewPassword)) < 8 {
		errs := FieldErrors{}
		errs.Add("new_password", "Password must be at least 8 characters")
		return validationFail(c, errs)
	}

	sum := sha256.Sum256([]byte(strings.TrimSpace(req.Token)))
	hash := hex.EncodeToString(sum[:])

	var prt models.PasswordResetToken
	err := h.DB.Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", hash, time.Now()).
		First(&prt).Error
	if err == gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "invalid or expired token",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "internal server error",
		})
	}

	pw, err := utils.HashPassword(strings.TrimSpace(req.NewPassword))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "could not process password",
		})
	}

	now := time.Now()
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("id = ?", prt.UserID).
			Update("password_hash", pw).Error; err != nil {
			return err
		}
		return tx.Model(&prt).Update("used_at", &now).Error
	})
	if err != nil {
		log.Println("reset password:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "could not reset password",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}
