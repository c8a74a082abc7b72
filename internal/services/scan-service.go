package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/SundayYogurt/equipment_service/internal/audit"
	"github.com/SundayYogurt/equipment_service/internal/domain"
	"github.com/SundayYogurt/equipment_service/internal/dto"
	"github.com/SundayYogurt/equipment_service/internal/interfaces"
	"github.com/SundayYogurt/equipment_service/internal/lease"
	"github.com/SundayYogurt/equipment_service/internal/reconcile"
	"github.com/SundayYogurt/equipment_service/internal/registry"
	"github.com/SundayYogurt/equipment_service/internal/repository"
	"github.com/google/uuid"
)

var (
	// ErrNotFound: no registry matched the payload. Routine outcome of a
	// scan (foreign QR code, typo), not a system error.
	ErrNotFound = errors.New("no equipment found for this code")
	// ErrInvalidToken: unknown, mismatched or expired edit lease. The
	// client's remedy is always to scan again.
	ErrInvalidToken = errors.New("session expired, please scan again")
)

type ScanService interface {
	StartScan(payload, actor string) (*dto.ScanResponse, error)
	ApplyEdit(key string, kind domain.RegistryKind, token string, patch domain.ToolPatch, actor string) (*dto.EditResponse, error)
	AttachPhoto(ctx context.Context, key string, kind domain.RegistryKind, token, actor, filename string, data []byte) (*dto.EditResponse, error)
	GetTool(key string, kind domain.RegistryKind) (*dto.ToolResponse, error)
	GetAuditTrail(key string, kind domain.RegistryKind) ([]domain.AuditEntry, error)
}

type scanService struct {
	store     *registry.Store
	trail     *audit.Trail
	leases    *lease.Manager
	rec       *reconcile.Reconciler
	auditRepo repository.AuditRepository
	producer  interfaces.ProducerHandler
	uploader  interfaces.Uploader
	nowFn     func() time.Time
}

func NewScanService(
	store *registry.Store,
	trail *audit.Trail,
	leases *lease.Manager,
	rec *reconcile.Reconciler,
	auditRepo repository.AuditRepository,
	producer interfaces.ProducerHandler,
	uploader interfaces.Uploader,
) ScanService {
	return &scanService{
		store:     store,
		trail:     trail,
		leases:    leases,
		rec:       rec,
		auditRepo: auditRepo,
		producer:  producer,
		uploader:  uploader,
		nowFn:     time.Now,
	}
}

// StartScan resolves a raw scan payload across both registries, ordered:
//  1. registry A with the CARE_ prefix stripped
//  2. registry B by key, then by display name
//  3. registry A without assuming the prefix, by key, then by display name
//
// First match wins. On a hit a SCAN audit entry is recorded and a fresh edit
// lease is minted; a miss touches nothing.
func (s *scanService) StartScan(payload, actor string) (*dto.ScanResponse, error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		// malformed payload normalizes to an empty key: same outcome as
		// an unknown code
		return nil, ErrNotFound
	}

	tool, kind, found := s.resolve(trimmed)
	if !found {
		return nil, ErrNotFound
	}

	s.emitAudit(domain.AuditEntry{
		ToolKey:      tool.RegistryKey,
		RegistryKind: kind,
		Action:       domain.AuditScan,
		Actor:        actor,
		CreatedAt:    s.nowFn(),
	})

	token, err := s.leases.Issue(tool.RegistryKey, kind, actor)
	if err != nil {
		return nil, err
	}

	return &dto.ScanResponse{Tool: tool, Token: token, Registry: kind}, nil
}

func (s *scanService) resolve(trimmed string) (domain.Tool, domain.RegistryKind, bool) {
	if registry.HasRegistryAPrefix(trimmed) {
		keyA := registry.NormalizeKey(registry.StripRegistryAPrefix(trimmed), domain.RegistryA)
		if tool, _, ok := s.rec.Lookup(keyA, domain.RegistryA); ok {
			return tool, domain.RegistryA, true
		}
	}

	keyB := registry.NormalizeKey(trimmed, domain.RegistryB)
	if tool, _, ok := s.rec.Lookup(keyB, domain.RegistryB); ok {
		return tool, domain.RegistryB, true
	}
	if tool, _, ok := s.rec.LookupByName(trimmed, domain.RegistryB); ok {
		return tool, domain.RegistryB, true
	}

	keyA := registry.NormalizeKey(trimmed, domain.RegistryA)
	if tool, _, ok := s.rec.Lookup(keyA, domain.RegistryA); ok {
		return tool, domain.RegistryA, true
	}
	if tool, _, ok := s.rec.LookupByName(trimmed, domain.RegistryA); ok {
		return tool, domain.RegistryA, true
	}

	return domain.Tool{}, "", false
}

// ApplyEdit consumes the edit lease, merges the patch, emits one MODIFY audit
// entry per changed field, mints a replacement lease for continued editing
// and mirrors the record into the durable store. A durable write failure is
// logged and swallowed — the in-memory mutation already succeeded.
func (s *scanService) ApplyEdit(key string, kind domain.RegistryKind, token string, patch domain.ToolPatch, actor string) (*dto.EditResponse, error) {
	normKey := registry.NormalizeKey(key, kind)

	if _, ok := s.leases.Consume(token, normKey, kind); !ok {
		return nil, ErrInvalidToken
	}

	tool, changes, created := s.store.Upsert(normKey, patch, kind, actor)
	now := s.nowFn()

	if created {
		s.emitAudit(domain.AuditEntry{
			ToolKey:      tool.RegistryKey,
			RegistryKind: kind,
			Action:       domain.AuditCreate,
			Actor:        actor,
			CreatedAt:    now,
		})
	}
	for _, ch := range changes {
		s.emitAudit(domain.AuditEntry{
			ToolKey:      tool.RegistryKey,
			RegistryKind: kind,
			Action:       domain.AuditModify,
			Field:        ch.Field,
			OldValue:     ch.OldValue,
			NewValue:     ch.NewValue,
			Actor:        actor,
			CreatedAt:    now,
		})
	}

	newToken, err := s.leases.Issue(tool.RegistryKey, kind, actor)
	if err != nil {
		return nil, err
	}

	if err := s.rec.Persist(tool); err != nil {
		log.Printf("persistence degraded for %s/%s: %v", kind, tool.RegistryKey, err)
	}

	return &dto.EditResponse{Tool: tool, Token: newToken}, nil
}

// AttachPhoto uploads the photo through the uploader and stores the returned
// URL via the normal lease-gated edit path.
func (s *scanService) AttachPhoto(ctx context.Context, key string, kind domain.RegistryKind, token, actor, filename string, data []byte) (*dto.EditResponse, error) {
	if s.uploader == nil {
		return nil, errors.New("photo uploads are not configured")
	}

	url, err := s.uploader.UploadBytes(ctx, "equipment", filename, data)
	if err != nil {
		log.Printf("photo upload error: %v", err)
		return nil, errors.New("failed to upload photo")
	}

	return s.ApplyEdit(key, kind, token, domain.ToolPatch{AttachmentRef: &url}, actor)
}

// GetTool serves a read durable-first and tags the response with the source
// that answered.
func (s *scanService) GetTool(key string, kind domain.RegistryKind) (*dto.ToolResponse, error) {
	tool, source, ok := s.rec.Lookup(key, kind)
	if !ok {
		return nil, ErrNotFound
	}
	return &dto.ToolResponse{Tool: tool, Source: string(source)}, nil
}

// GetAuditTrail returns the bounded in-memory trail, most recent first. A
// fresh process with an empty trail falls back to the durable mirror.
func (s *scanService) GetAuditTrail(key string, kind domain.RegistryKind) ([]domain.AuditEntry, error) {
	normKey := registry.NormalizeKey(key, kind)

	entries := s.trail.ForKey(normKey)
	if len(entries) > 0 || s.auditRepo == nil {
		return entries, nil
	}

	rows, err := s.auditRepo.ListByToolKey(normKey, audit.PerKeyLimit)
	if err != nil {
		return entries, nil
	}
	for _, row := range rows {
		e := domain.AuditEntry{
			ToolKey:      row.ToolKey,
			RegistryKind: row.RegistryKind,
			Action:       domain.AuditAction(row.Action),
			Actor:        row.Actor,
			CreatedAt:    row.CreatedAt,
		}
		if row.Field != nil {
			e.Field = *row.Field
		}
		if row.OldValue != nil {
			e.OldValue = *row.OldValue
		}
		if row.NewValue != nil {
			e.NewValue = *row.NewValue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// emitAudit fans one entry out to the in-memory trail, the durable mirror and
// the broker. Mirror and broker failures are logged and swallowed.
func (s *scanService) emitAudit(e domain.AuditEntry) {
	s.trail.Record(e)

	if s.auditRepo != nil {
		row := &domain.AuditLog{
			ToolKey:      e.ToolKey,
			RegistryKind: e.RegistryKind,
			Action:       string(e.Action),
			Actor:        e.Actor,
			CreatedAt:    e.CreatedAt,
		}
		if e.Field != "" {
			row.Field = &e.Field
			row.OldValue = &e.OldValue
			row.NewValue = &e.NewValue
		}
		if err := s.auditRepo.Append(row); err != nil {
			log.Printf("audit mirror degraded: %v", err)
		}
	}

	if s.producer == nil {
		return
	}
	event := dto.ToolEvent{
		EventID:      uuid.NewString(),
		ToolKey:      e.ToolKey,
		RegistryKind: string(e.RegistryKind),
		Action:       string(e.Action),
		Field:        e.Field,
		OldValue:     e.OldValue,
		NewValue:     e.NewValue,
		Actor:        e.Actor,
		OccurredAt:   e.CreatedAt.Format(time.RFC3339),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}
	if err := s.producer.PublishMessage([]byte(e.ToolKey), payload); err != nil {
		log.Printf("event publish degraded: %v", err)
	}
}
