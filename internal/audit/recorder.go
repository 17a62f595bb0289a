package audit

import (
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/tokenworks/backend/internal/models"
)

// Event is one immutable audit record. Events are appended, never updated or
// deleted; the table has no other write path.
type Event struct {
	Timestamp  time.Time       `json:"timestamp"`
	ActorID    string          `json:"actor_id"`
	Action     string          `json:"action"`
	ObjectType string          `json:"object_type"`
	ObjectID   string          `json:"object_id"`
	Summary    string          `json:"summary"`
	Metadata   models.Metadata `json:"metadata,omitempty"`
}

// Recorder appends audit events to the audit_events table and mirrors each
// one to the process log.
type Recorder struct {
	db *sql.DB
}

func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// RecordTx appends an event inside the caller's unit of work, so the audit
// row commits if and only if the transition it describes commits.
func (r *Recorder) RecordTx(tx *sql.Tx, actorID, action, objectType, objectID, summary string, metadata models.Metadata) error {
	event := Event{
		Timestamp:  time.Now(),
		ActorID:    actorID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		Summary:    summary,
		Metadata:   metadata,
	}

	_, err := tx.Exec(`
		INSERT INTO audit_events (actor_id, action, object_type, object_id, summary, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		actorID, action, objectType, objectID, summary, event.Metadata, event.Timestamp)
	if err != nil {
		return err
	}

	r.log(event)
	return nil
}

// Record appends an event in its own unit of work, for transitions that do
// not carry one (e.g. log-only failures surfaced by operators).
func (r *Recorder) Record(actorID, action, objectType, objectID, summary string, metadata models.Metadata) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.RecordTx(tx, actorID, action, objectType, objectID, summary, metadata); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Recorder) log(event Event) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
