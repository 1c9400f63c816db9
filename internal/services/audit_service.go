package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/travellanka/listings-backend/internal/database"
	"github.com/travellanka/listings-backend/internal/models"
	"github.com/travellanka/listings-backend/internal/utils"
)

// Audit actions
const (
	AuditLogin             = "login"
	AuditLoginFailed       = "login_failed"
	AuditRateLimited       = "rate_limit_violation"
	AuditPasswordChanged   = "password_changed"
	AuditBusinessUpdated   = "business_updated"
	AuditBusinessActivated = "business_activated"
	AuditOwnerCreated      = "owner_created"
	AuditListingStatus     = "listing_status_changed"
	AuditListingVerified   = "listing_verified"
	AuditListingDeleted    = "listing_deleted"
	AuditAccountStatus     = "account_status_changed"
)

// AuditEvent represents an event to be written to the audit trail
type AuditEvent struct {
	UserID     *uuid.UUID // nil before authentication
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]interface{}
}

// AuditService writes audit events to the audit_logs table
type AuditService struct {
	db      database.DB
	logger  *logrus.Logger
	enabled bool
}

// NewAuditService creates a new audit service. A disabled service only
// writes events to the application log.
func NewAuditService(db database.DB, logger *logrus.Logger, enabled bool) *AuditService {
	return &AuditService{
		db:      db,
		logger:  logger,
		enabled: enabled,
	}
}

// Record stores an event. Failures are logged and never reach the caller.
func (s *AuditService) Record(ctx context.Context, event AuditEvent) {
	meta := RequestMetaFrom(ctx)

	details := map[string]interface{}{}
	for k, v := range event.Details {
		details[k] = v
	}
	if meta.UserAgent != "" {
		details["device_info"] = utils.ParseUserAgent(meta.UserAgent)
	}

	fields := logrus.Fields{
		"action":      event.Action,
		"entity_type": event.EntityType,
		"entity_id":   event.EntityID,
		"ip":          meta.IPAddress,
	}
	if event.UserID != nil {
		fields["user_id"] = event.UserID.String()
	}

	if !s.enabled {
		s.logger.WithFields(fields).Debug("Audit event")
		return
	}

	if err := s.insert(ctx, event, meta, details); err != nil {
		s.logger.WithFields(fields).WithError(err).Error("Failed to write audit event")
	}
}

func (s *AuditService) insert(ctx context.Context, event AuditEvent, meta RequestMeta, details map[string]interface{}) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	var userID uuid.NullUUID
	if event.UserID != nil {
		userID = uuid.NullUUID{UUID: *event.UserID, Valid: true}
	}

	query := `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	_, err = s.db.ExecContext(ctx, query,
		userID,
		event.Action,
		models.NewNullString(event.EntityType),
		models.NewNullString(event.EntityID),
		models.NewNullString(meta.IPAddress),
		models.NewNullString(meta.UserAgent),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}

	return nil
}

// Recent returns the newest audit entries, optionally for one user
func (s *AuditService) Recent(ctx context.Context, userID *uuid.UUID, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	logs := []models.AuditLog{}
	query := `
		SELECT id, user_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at
		FROM audit_logs
	`
	args := []interface{}{}
	if userID != nil {
		query += ` WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
		args = append(args, *userID, limit)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1`
		args = append(args, limit)
	}

	if err := s.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get recent events: %w", err)
	}

	return logs, nil
}
