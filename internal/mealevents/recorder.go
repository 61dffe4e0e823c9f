// Package mealevents appends the meal audit trail.
//
// Writes are best effort: a failed append is logged and never surfaces to the
// caller, and it never rolls back the transition it describes. Callers record
// after their transaction commits so an audit failure cannot abort it.
package mealevents

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sharemeal/sharemeal-backend/pkg/db/models"
	"github.com/sharemeal/sharemeal-backend/pkg/enums"
	pkgerrors "github.com/sharemeal/sharemeal-backend/pkg/errors"
	"github.com/sharemeal/sharemeal-backend/pkg/logger"
)

// Entry describes one status change. A nil ChangedBy marks the system.
type Entry struct {
	MealID    uuid.UUID
	ChangedBy *uuid.UUID
	From      enums.MealStatus
	To        enums.MealStatus
	Note      string
}

// Recorder writes audit rows and swallows write failures.
type Recorder struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewRecorder builds a Recorder.
func NewRecorder(repo Repository, logg *logger.Logger) *Recorder {
	return &Recorder{
		repo: repo,
		logg: logg,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Record appends one audit row.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r == nil || r.repo == nil {
		return
	}
	row := &models.MealEventLog{
		ID:         uuid.New(),
		MealID:     entry.MealID,
		ChangedBy:  entry.ChangedBy,
		FromStatus: entry.From,
		ToStatus:   entry.To,
		Note:       entry.Note,
		CreatedAt:  r.now(),
	}
	if err := r.repo.Create(ctx, row); err != nil && r.logg != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"meal_id":     entry.MealID.String(),
			"from_status": string(entry.From),
			"to_status":   string(entry.To),
		})
		logCtx = r.logg.WithFields(logCtx, pkgerrors.Diagnose(err).Fields())
		r.logg.Error(logCtx, "mealevents.record_failed", err)
	}
}

// ActorRef returns a pointer suitable for Entry.ChangedBy.
func ActorRef(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	ref := id
	return &ref
}
