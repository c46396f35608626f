// Package chat is the gate in front of a hire's messages and shared files:
// it re-derives the hire on every call and applies the authorization policy
// before touching rows or disk.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/entrenar-app/backend_entrenadores/internal/authz"
	"github.com/entrenar-app/backend_entrenadores/internal/domain"
	"github.com/entrenar-app/backend_entrenadores/internal/models"
	"github.com/entrenar-app/backend_entrenadores/internal/storage"
)

type Service struct {
	DB    *gorm.DB
	Files *storage.Local
}

func NewService(db *gorm.DB, files *storage.Local) *Service {
	return &Service{DB: db, Files: files}
}

func (s *Service) loadHire(ctx context.Context, hireID uuid.UUID) (*models.Hire, error) {
	var hire models.Hire
	if err := s.DB.WithContext(ctx).Preload("Service").
		First(&hire, "id = ?", hireID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("chat: hire %s: %w", hireID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("chat: load hire: %w", err)
	}
	return &hire, nil
}

// PostMessage inserts one message after validating the sender is a
// participant and the hire is still live. Returns the created row.
func (s *Service) PostMessage(ctx context.Context, hireID, senderID uuid.UUID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("chat: empty message: %w", domain.ErrInvalidInput)
	}

	hire, err := s.loadHire(ctx, hireID)
	if err != nil {
		return nil, err
	}
	if !authz.CanWriteChatOrFile(hire, senderID) {
		return nil, domain.ErrUnauthorized
	}

	msg := models.Message{
		HireID:   hireID,
		SenderID: senderID,
		Text:     text,
	}
	if err := s.DB.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("chat: insert message: %w", err)
	}
	return &msg, nil
}

// ListMessages returns the full history oldest first, ties broken by
// insertion order.
func (s *Service) ListMessages(ctx context.Context, hireID, requesterID uuid.UUID) ([]models.Message, error) {
	hire, err := s.loadHire(ctx, hireID)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccessChat(hire, requesterID) {
		return nil, domain.ErrUnauthorized
	}

	var msgs []models.Message
	if err := s.DB.WithContext(ctx).
		Preload("Sender").
		Where("hire_id = ?", hireID).
		Order("created_at ASC, seq ASC").
		Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("chat: list messages: %w", err)
	}
	return msgs, nil
}

// FileRef is what callers get back after an upload: enough to retrieve it.
type FileRef struct {
	ID           uuid.UUID `json:"id"`
	OriginalName string    `json:"name"`
	URL          string    `json:"url"`
	MimeType     string    `json:"mime_type,omitempty"`
	UploadedBy   string    `json:"uploaded_by,omitempty"`
}

// UploadFile stores the bytes and records the metadata row. Storage happens
// before the insert; an insert failure leaves an unreferenced file on disk,
// never a dangling row.
func (s *Service) UploadFile(ctx context.Context, hireID, uploaderID uuid.UUID, data []byte, originalName, mimeType string) (*FileRef, error) {
	if len(data) == 0 || strings.TrimSpace(originalName) == "" {
		return nil, fmt.Errorf("chat: empty upload: %w", domain.ErrInvalidInput)
	}

	hire, err := s.loadHire(ctx, hireID)
	if err != nil {
		return nil, err
	}
	if !authz.CanWriteChatOrFile(hire, uploaderID) {
		return nil, domain.ErrUnauthorized
	}

	storedName, err := s.Files.Save(hireID, originalName, data)
	if err != nil {
		return nil, err
	}

	file := models.SharedFile{
		HireID:       hireID,
		UploaderID:   uploaderID,
		OriginalName: originalName,
		StoredName:   storedName,
		MimeType:     mimeType,
	}
	if err := s.DB.WithContext(ctx).Create(&file).Error; err != nil {
		return nil, fmt.Errorf("chat: insert file: %w", err)
	}

	return &FileRef{
		ID:           file.ID,
		OriginalName: file.OriginalName,
		URL:          s.Files.URL(hireID, storedName),
		MimeType:     file.MimeType,
	}, nil
}

// ListFiles returns the hire's files newest first, skipping soft-deleted rows.
func (s *Service) ListFiles(ctx context.Context, hireID, requesterID uuid.UUID) ([]FileRef, error) {
	hire, err := s.loadHire(ctx, hireID)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccessChat(hire, requesterID) {
		return nil, domain.ErrUnauthorized
	}

	var files []models.SharedFile
	if err := s.DB.WithContext(ctx).
		Preload("Uploader").
		Where("hire_id = ? AND deleted = false", hireID).
		Order("created_at DESC").
		Find(&files).Error; err != nil {
		return nil, fmt.Errorf("chat: list files: %w", err)
	}

	out := make([]FileRef, 0, len(files))
	for _, f := range files {
		ref := FileRef{
			ID:           f.ID,
			OriginalName: f.OriginalName,
			URL:          s.Files.URL(hireID, f.StoredName),
			MimeType:     f.MimeType,
		}
		if f.Uploader != nil {
			ref.UploadedBy = f.Uploader.FullName()
		}
		out = append(out, ref)
	}
	return out, nil
}
