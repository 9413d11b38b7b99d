package audit

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/SysArcDCMS/dcms-scheduler/internal/models"
)

// Recorder persists one audit event.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Logger writes audit events to the audit_logs table.
type Logger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

func (l *Logger) Record(ctx context.Context, ev Event) error {
	row := models.AuditLog{
		Actor:    ev.Actor,
		Action:   ev.Action,
		Entity:   ev.Entity,
		EntityID: ev.EntityID,
		Metadata: encodeMetadata(ev.Metadata),
	}

	return l.db.WithContext(ctx).Create(&row).Error
}

// LogRecorder emits audit events as log lines. Used with the in-memory
// registry, where there is no audit table.
type LogRecorder struct{}

func (LogRecorder) Record(_ context.Context, ev Event) error {
	log.Info().
		Str("audit_action", ev.Action).
		Str("actor", ev.Actor).
		Str("entity", ev.Entity).
		Str("entity_id", ev.EntityID).
		RawJSON("metadata", []byte(orEmptyObject(encodeMetadata(ev.Metadata)))).
		Msg("audit")
	return nil
}

func encodeMetadata(metadata any) string {
	if metadata == nil {
		return ""
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(b)
}

func orEmptyObject(s string) string {
	if s == "" {
		return "{}"
	}
	return s
}
