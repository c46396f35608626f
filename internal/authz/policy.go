// Package authz centralizes every role and ownership decision as pure
// functions over already-fetched rows. Callers load the hire with its service
// and pass the requester identity; nothing here touches the database.
package authz

import (
	"github.com/google/uuid"

	"github.com/entrenar-app/backend_entrenadores/internal/models"
)

// isParticipant reports whether the requester is the hire's client or the
// trainer owning the hire's service. The hire must carry its Service.
func isParticipant(hire *models.Hire, requesterID uuid.UUID) bool {
	if hire == nil || hire.Service == nil {
		return false
	}
	return hire.ClientID == requesterID || hire.Service.TrainerID == requesterID
}

// CanViewHire: participants may always read a hire.
func CanViewHire(hire *models.Hire, requesterID uuid.UUID) bool {
	return isParticipant(hire, requesterID)
}

// CanActOnHire gates state transitions: either participant may attempt one
// (the transition table itself restricts what each attempt can do).
func CanActOnHire(hire *models.Hire, requesterID uuid.UUID) bool {
	return isParticipant(hire, requesterID)
}

// CanCompleteHire: only the trainer owning the service may mark it completed.
func CanCompleteHire(service *models.Service, requester *models.User) bool {
	if service == nil || requester == nil {
		return false
	}
	return requester.Role == models.RoleTrainer && service.TrainerID == requester.ID
}

// CanAccessChat: participants always read history, regardless of hire state.
func CanAccessChat(hire *models.Hire, requesterID uuid.UUID) bool {
	return isParticipant(hire, requesterID)
}

// CanWriteChatOrFile: writing closes once the hire leaves a live state.
func CanWriteChatOrFile(hire *models.Hire, requesterID uuid.UUID) bool {
	return CanAccessChat(hire, requesterID) && hire.State.Live()
}

// CanReview: only the hire's client, only after completion, only once.
func CanReview(hire *models.Hire, requesterID uuid.UUID, alreadyReviewed bool) bool {
	if hire == nil {
		return false
	}
	return hire.ClientID == requesterID &&
		hire.State == models.HireStateCompleted &&
		!alreadyReviewed
}

// CanRespondToReview: the owning trainer may respond exactly once.
func CanRespondToReview(review *models.Review, hireService *models.Service, requesterID uuid.UUID) bool {
	if review == nil || hireService == nil {
		return false
	}
	return hireService.TrainerID == requesterID && review.Response == nil
}

// CanDeleteReview: admin, authoring client or owning trainer.
func CanDeleteReview(clientID, trainerID, requesterID uuid.UUID, isAdmin bool) bool {
	return isAdmin || clientID == requesterID || trainerID == requesterID
}

// CanManageUser: admins manage anyone, everyone else only themselves.
func CanManageUser(targetID, requesterID uuid.UUID, requesterRole models.Role) bool {
	return requesterRole == models.RoleAdmin || targetID == requesterID
}
