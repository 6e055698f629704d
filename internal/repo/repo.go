package repo

import (
	"context"
	"errors"

	"meetpoll/internal/model"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrDuplicateShareID  = errors.New("share id already in use")
	ErrNameConflict      = errors.New("participant name changed concurrently")
	ErrForeignTimeOption = errors.New("time option does not belong to event")
)

// Repository is the persistence gateway over events, time options,
// participants and responses.
type Repository interface {
	// CreateEventTx stores the event and all of its time options atomically.
	CreateEventTx(ctx context.Context, e *model.Event, options []model.TimeOption) error
	GetEventByShareID(ctx context.Context, shareID string) (*model.Event, error)
	GetTimeOptionsByEventID(ctx context.Context, eventID string) ([]model.TimeOption, error)
	// GetEventSnapshot reads the event and everything attached to it from a
	// single consistent view.
	GetEventSnapshot(ctx context.Context, shareID string) (*model.EventSnapshot, error)
	// SubmitParticipationTx resolves p by case-insensitive name within its
	// event, creating it when absent, and replaces all of its responses.
	// On return p holds the stored participant and created tells whether it
	// was inserted.
	SubmitParticipationTx(ctx context.Context, p *model.Participant, responses []model.Response) (created bool, err error)
	Ping(ctx context.Context) error
}
