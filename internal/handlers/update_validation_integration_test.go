package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/entrenar-app/backend_entrenadores/internal/models"
	"github.com/entrenar-app/backend_entrenadores/internal/services/stats"
	"github.com/entrenar-app/backend_entrenadores/internal/testutil"
)

func authedApp(user *models.User, method, path string, handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Add(method, path, func(c *fiber.Ctx) error {
		c.Locals("userId", user.ID.String())
		c.Locals("role", string(user.Role))
		return handler(c)
	})
	return app
}

func patchJSON(t *testing.T, app *fiber.App, path, body string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPatch, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return resp.StatusCode
}

func TestServiceUpdate_Validation_Integration(t *testing.T) {
	gdb := testutil.StartPostgres(t)
	trainer := testutil.SeedUser(t, gdb, models.RoleTrainer)
	offering := testutil.SeedService(t, gdb, trainer.ID)

	h := NewServiceHandler(gdb, stats.NewService(gdb))
	app := authedApp(trainer, http.MethodPatch, "/services/:id", h.Update)
	path := fmt.Sprintf("/services/%d", offering.ID)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"wrong type price", `{"price":"abc"}`, http.StatusBadRequest},
		{"negative price", `{"price":-5}`, http.StatusBadRequest},
		{"zero duration", `{"duration_min":0}`, http.StatusBadRequest},
		{"bad modality", `{"modality":"hybrid"}`, http.StatusBadRequest},
		{"unknown field", `{"trainer_id":"someone-else"}`, http.StatusBadRequest},
		{"empty description", `{"description":"   "}`, http.StatusBadRequest},
		{"start after end", `{"start_at":"2031-01-01T00:00:00Z"}`, http.StatusBadRequest},
		{"valid", `{"price":200000,"description":"plan renovado de fuerza"}`, http.StatusOK},
	}

	for _, tc := range cases {
		if got := patchJSON(t, app, path, tc.body); got != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, got, tc.want)
		}
	}

	var reloaded models.Service
	if err := gdb.First(&reloaded, "id = ?", offering.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Price != 200000 {
		t.Errorf("price = %d, want 200000 (only the valid update applies)", reloaded.Price)
	}
	if reloaded.DurationMin != offering.DurationMin {
		t.Errorf("duration changed by a rejected update")
	}
}

func TestUserUpdate_Validation_Integration(t *testing.T) {
	gdb := testutil.StartPostgres(t)
	user := testutil.SeedUser(t, gdb, models.RoleClient)

	h := NewUserHandler(gdb)
	app := authedApp(user, http.MethodPatch, "/users/:id", h.Update)
	path := "/users/" + user.ID.String()

	cases := []struct {
		name string
		body string
		want int
	}{
		{"wrong type first_name", `{"first_name":123}`, http.StatusBadRequest},
		{"empty first_name", `{"first_name":"  "}`, http.StatusBadRequest},
		{"bad birth_date", `{"birth_date":"yesterday"}`, http.StatusBadRequest},
		{"unknown field", `{"role":"admin"}`, http.StatusBadRequest},
		{"valid", `{"first_name":"Carla","birth_date":"1990-04-12"}`, http.StatusOK},
	}

	for _, tc := range cases {
		if got := patchJSON(t, app, path, tc.body); got != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, got, tc.want)
		}
	}

	var reloaded models.User
	if err := gdb.First(&reloaded, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.FirstName != "Carla" {
		t.Errorf("first_name = %q, want Carla", reloaded.FirstName)
	}
	if reloaded.Role != models.RoleClient {
		t.Errorf("role changed by a rejected update")
	}
}
