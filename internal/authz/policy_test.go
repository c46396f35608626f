package authz

import (
	"testing"

	"github.com/google/uuid"

	"github.com/entrenar-app/backend_entrenadores/internal/models"
)

func fixture() (hire *models.Hire, clientID, trainerID, strangerID uuid.UUID) {
	clientID = uuid.New()
	trainerID = uuid.New()
	strangerID = uuid.New()
	hire = &models.Hire{
		ID:       uuid.New(),
		ClientID: clientID,
		State:    models.HireStatePending,
		Service:  &models.Service{TrainerID: trainerID},
	}
	return
}

func TestCanViewHire(t *testing.T) {
	hire, clientID, trainerID, strangerID := fixture()

	if !CanViewHire(hire, clientID) {
		t.Error("client denied")
	}
	if !CanViewHire(hire, trainerID) {
		t.Error("trainer denied")
	}
	if CanViewHire(hire, strangerID) {
		t.Error("stranger allowed")
	}
	if CanViewHire(nil, clientID) {
		t.Error("nil hire allowed")
	}
	if CanViewHire(&models.Hire{ClientID: clientID}, clientID) {
		t.Error("hire without service allowed")
	}
}

func TestCanCompleteHire(t *testing.T) {
	_, _, trainerID, strangerID := fixture()
	svc := &models.Service{TrainerID: trainerID}

	trainer := &models.User{ID: trainerID, Role: models.RoleTrainer}
	if !CanCompleteHire(svc, trainer) {
		t.Error("owning trainer denied")
	}

	otherTrainer := &models.User{ID: strangerID, Role: models.RoleTrainer}
	if CanCompleteHire(svc, otherTrainer) {
		t.Error("non-owning trainer allowed")
	}

	clientAsOwner := &models.User{ID: trainerID, Role: models.RoleClient}
	if CanCompleteHire(svc, clientAsOwner) {
		t.Error("client role allowed")
	}
	if CanCompleteHire(nil, trainer) || CanCompleteHire(svc, nil) {
		t.Error("nil inputs allowed")
	}
}

func TestCanWriteChatOrFile(t *testing.T) {
	hire, clientID, trainerID, strangerID := fixture()

	for _, state := range []models.HireState{models.HireStatePending, models.HireStateAccepted} {
		hire.State = state
		if !CanWriteChatOrFile(hire, clientID) || !CanWriteChatOrFile(hire, trainerID) {
			t.Errorf("participant denied in %s", state)
		}
		if CanWriteChatOrFile(hire, strangerID) {
			t.Errorf("stranger allowed in %s", state)
		}
	}

	for _, state := range []models.HireState{models.HireStateCancelled, models.HireStateCompleted} {
		hire.State = state
		if CanWriteChatOrFile(hire, clientID) || CanWriteChatOrFile(hire, trainerID) {
			t.Errorf("write allowed in terminal state %s", state)
		}
		// history stays readable
		if !CanAccessChat(hire, clientID) || !CanAccessChat(hire, trainerID) {
			t.Errorf("read denied in terminal state %s", state)
		}
	}
}

func TestCanReview(t *testing.T) {
	hire, clientID, _, strangerID := fixture()

	hire.State = models.HireStateCompleted
	if !CanReview(hire, clientID, false) {
		t.Error("eligible client denied")
	}
	if CanReview(hire, clientID, true) {
		t.Error("second review allowed")
	}
	if CanReview(hire, strangerID, false) {
		t.Error("stranger allowed")
	}

	hire.State = models.HireStateAccepted
	if CanReview(hire, clientID, false) {
		t.Error("review allowed before completion")
	}
	if CanReview(nil, clientID, false) {
		t.Error("nil hire allowed")
	}
}

func TestCanRespondToReview(t *testing.T) {
	_, _, trainerID, strangerID := fixture()
	svc := &models.Service{TrainerID: trainerID}

	review := &models.Review{ID: uuid.New()}
	if !CanRespondToReview(review, svc, trainerID) {
		t.Error("owning trainer denied")
	}
	if CanRespondToReview(review, svc, strangerID) {
		t.Error("other user allowed")
	}

	resp := "thanks"
	review.Response = &resp
	if CanRespondToReview(review, svc, trainerID) {
		t.Error("second response allowed")
	}
}

func TestCanDeleteReview(t *testing.T) {
	clientID, trainerID, strangerID := uuid.New(), uuid.New(), uuid.New()

	if !CanDeleteReview(clientID, trainerID, clientID, false) {
		t.Error("client denied")
	}
	if !CanDeleteReview(clientID, trainerID, trainerID, false) {
		t.Error("trainer denied")
	}
	if !CanDeleteReview(clientID, trainerID, strangerID, true) {
		t.Error("admin denied")
	}
	if CanDeleteReview(clientID, trainerID, strangerID, false) {
		t.Error("stranger allowed")
	}
}

func TestCanManageUser(t *testing.T) {
	target, self, admin := uuid.New(), uuid.New(), uuid.New()

	if !CanManageUser(self, self, models.RoleClient) {
		t.Error("self denied")
	}
	if !CanManageUser(target, admin, models.RoleAdmin) {
		t.Error("admin denied")
	}
	if CanManageUser(target, self, models.RoleTrainer) {
		t.Error("other user allowed")
	}
}
