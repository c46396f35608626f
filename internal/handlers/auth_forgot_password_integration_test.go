package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/entrenar-app/backend_entrenadores/internal/models"
	"github.com/entrenar-app/backend_entrenadores/internal/services/mailer"
	"github.com/entrenar-app/backend_entrenadores/internal/testutil"
)

// An unconfigured mailer makes the send fail; the endpoint must answer 502
// and must not leave the unsent token behind, or the user's next attempt
// would mint a second live token for a mail that never went out.
func TestForgotPassword_MailFailureDropsToken(t *testing.T) {
	gdb := testutil.StartPostgres(t)
	user := testutil.SeedUser(t, gdb, models.RoleClient)

	h := &AuthHandler{
		DB:        gdb,
		JWTSecret: "test-secret",
		Expires:   60,
		Mailer:    mailer.New("", "", "", "", "", ""),
	}
	app := fiber.New()
	app.Post("/auth/forgot-password", h.ForgotPassword)

	body := fmt.Sprintf(`{"email":%q}`, user.Email)
	req := httptest.NewRequest(http.MethodPost, "/auth/forgot-password", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadGateway)
	}

	var count int64
	if err := gdb.Model(&models.PasswordResetToken{}).
		Where("user_id = ?", user.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	if count != 0 {
		t.Errorf("reset tokens remaining = %d, want 0", count)
	}
}
