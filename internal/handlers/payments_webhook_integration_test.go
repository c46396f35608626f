package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/entrenar-app/backend_entrenadores/internal/models"
	"github.com/entrenar-app/backend_entrenadores/internal/services/hires"
	"github.com/entrenar-app/backend_entrenadores/internal/services/mercadopago"
	"github.com/entrenar-app/backend_entrenadores/internal/testutil"
)

// stubProvider serves one payment whose status can be advanced mid-test, the
// way MercadoPago re-notifies the same payment id as it moves
// pending -> approved.
type stubProvider struct {
	mu     sync.Mutex
	status string
	extRef string
}

func (s *stubProvider) setStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *stubProvider) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(w, `{"id":777,"status":%q,"external_reference":%q,"payment_type_id":"credit_card"}`, s.status, s.extRef)
}

func TestWebhook_StatusProgression_Integration(t *testing.T) {
	gdb := testutil.StartPostgres(t)
	rdb := testutil.StartRedis(t)
	ctx := context.Background()

	trainer := testutil.SeedUser(t, gdb, models.RoleTrainer)
	client := testutil.SeedUser(t, gdb, models.RoleClient)
	offering := testutil.SeedService(t, gdb, trainer.ID)

	hireSvc := hires.NewService(gdb)
	hire, err := hireSvc.Create(ctx, client.ID, offering.ID)
	if err != nil {
		t.Fatalf("create hire: %v", err)
	}

	provider := &stubProvider{status: "pending", extRef: hire.ID.String()}
	srv := httptest.NewServer(http.HandlerFunc(provider.handler))
	defer srv.Close()

	mp := mercadopago.NewClient("test-token", srv.URL, "", "")
	h := NewPaymentHandler(gdb, hireSvc, mp, rdb)

	app := fiber.New()
	app.Post("/api/payments/webhook", h.Webhook)

	notify := func() int {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook",
			bytes.NewReader([]byte(`{"type":"payment","data":{"id":777}}`)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-signature", "ts=1,v1=deadbeef")
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("webhook request: %v", err)
		}
		return resp.StatusCode
	}

	paymentState := func() models.PaymentState {
		t.Helper()
		var got models.Hire
		if err := gdb.First(&got, "id = ?", hire.ID).Error; err != nil {
			t.Fatalf("reload hire: %v", err)
		}
		return got.PaymentState
	}

	if code := notify(); code != http.StatusOK {
		t.Fatalf("first notification = %d, want 200", code)
	}
	if state := paymentState(); state != models.PaymentStatePending {
		t.Fatalf("payment state = %s, want pending", state)
	}

	// replaying the same status acks without reapplying
	if code := notify(); code != http.StatusOK {
		t.Fatalf("replay = %d, want 200", code)
	}

	// the provider approves and re-notifies the same payment id; the new
	// status must land on the hire
	provider.setStatus("approved")
	if code := notify(); code != http.StatusOK {
		t.Fatalf("approval notification = %d, want 200", code)
	}
	if state := paymentState(); state != models.PaymentStateSuccessful {
		t.Fatalf("payment state after approval = %s, want successful", state)
	}

	var got models.Hire
	if err := gdb.First(&got, "id = ?", hire.ID).Error; err != nil {
		t.Fatalf("reload hire: %v", err)
	}
	if got.PaymentID == nil || *got.PaymentID != "777" {
		t.Fatal("payment id not recorded")
	}
	// lifecycle stays decoupled from payment
	if got.State != models.HireStatePending {
		t.Fatalf("lifecycle state = %s, want pending", got.State)
	}
}

func TestWebhook_MissingSignature(t *testing.T) {
	app := fiber.New()
	h := &PaymentHandler{}
	app.Post("/api/payments/webhook", h.Webhook)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook",
		bytes.NewReader([]byte(`{"type":"payment","data":{"id":777}}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("webhook request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}
