package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"meetpoll/internal/availability"
	"meetpoll/internal/model"
	"meetpoll/internal/repo"
	"meetpoll/internal/shareid"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 2000
	maxDurationLen    = 50
	maxNameLen        = 100
	maxTimeOptions    = 100

	shareIDAttempts = 3
)

type Service interface {
	CreateEvent(ctx context.Context, draft model.EventDraft, options []model.TimeOptionDraft) (*model.Event, []model.TimeOption, error)
	GetEventByShareID(ctx context.Context, shareID string) (*model.EventSummary, error)
	Participate(ctx context.Context, shareID, name string, responses []model.ResponseDraft) (*Participation, error)
}

// Notifier receives a notice after every stored participation.
type Notifier interface {
	NotifyParticipation(ctx context.Context, n model.ParticipationNotice) error
}

// Participation acknowledges a stored submission.
type Participation struct {
	ParticipantID string
	Created       bool
}

type service struct {
	repo     repo.Repository
	log      *zerolog.Logger
	notifier Notifier

	newID      func() string
	newShareID func() string
	now        func() time.Time
}

// NewService wires the event service. notifier may be nil.
func NewService(repo repo.Repository, logger *zerolog.Logger, notifier Notifier) Service {
	return &service{
		repo:       repo,
		log:        logger,
		notifier:   notifier,
		newID:      func() string { return uuid.New().String() },
		newShareID: shareid.New,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) CreateEvent(ctx context.Context, draft model.EventDraft, drafts []model.TimeOptionDraft) (*model.Event, []model.TimeOption, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Duration = strings.TrimSpace(draft.Duration)
	draft.OrganizerEmail = strings.TrimSpace(draft.OrganizerEmail)
	if err := validateEventDraft(draft); err != nil {
		return nil, nil, err
	}

	if len(drafts) == 0 {
		return nil, nil, invalid("timeOptions", "at least one time option is required")
	}
	if len(drafts) > maxTimeOptions {
		return nil, nil, invalid("timeOptions", "at most %d time options are allowed", maxTimeOptions)
	}

	event := &model.Event{
		ID:             s.newID(),
		Title:          draft.Title,
		Description:    draft.Description,
		Duration:       draft.Duration,
		OrganizerEmail: draft.OrganizerEmail,
		CreatedAt:      s.now(),
	}

	options := make([]model.TimeOption, 0, len(drafts))
	for i, d := range drafts {
		kind, err := d.Classify()
		if err != nil {
			return nil, nil, invalid(fmt.Sprintf("timeOptions[%d]", i), "%v", err)
		}
		d = d.Canonical()
		options = append(options, model.TimeOption{
			ID:        s.newID(),
			EventID:   event.ID,
			Position:  i,
			Kind:      kind,
			Date:      d.Date,
			StartTime: d.StartTime,
			EndTime:   d.EndTime,
			EndDate:   d.EndDate,
		})
	}

	// a share id collision only costs a fresh draw
	b := retry.WithMaxRetries(shareIDAttempts-1, retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		event.ShareID = s.newShareID()
		err := s.repo.CreateEventTx(ctx, event, options)
		if errors.Is(err, repo.ErrDuplicateShareID) {
			s.log.Warn().Str("share_id", event.ShareID).Msg("share id collision, drawing a new one")
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, nil, storageErr("create event", err)
	}

	s.log.Info().
		Str("event_id", event.ID).
		Str("share_id", event.ShareID).
		Int("time_options", len(options)).
		Msg("event created successfully")

	return event, options, nil
}

func validateEventDraft(d model.EventDraft) error {
	switch {
	case d.Title == "":
		return invalid("event.title", "is required")
	case utf8.RuneCountInString(d.Title) > maxTitleLen:
		return invalid("event.title", "exceeds %d characters", maxTitleLen)
	case utf8.RuneCountInString(d.Description) > maxDescriptionLen:
		return invalid("event.description", "exceeds %d characters", maxDescriptionLen)
	case d.Duration == "":
		return invalid("event.duration", "is required")
	case utf8.RuneCountInString(d.Duration) > maxDurationLen:
		return invalid("event.duration", "exceeds %d characters", maxDurationLen)
	}
	if d.OrganizerEmail != "" {
		if _, err := mail.ParseAddress(d.OrganizerEmail); err != nil {
			return invalid("event.organizerEmail", "is not an email address")
		}
	}
	return nil
}

func (s *service) GetEventByShareID(ctx context.Context, shareID string) (*model.EventSummary, error) {
	if !shareid.Valid(shareID) {
		return nil, ErrEventNotFound
	}

	snap, err := s.repo.GetEventSnapshot(ctx, shareID)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, storageErr("get event", err)
	}

	summary := availability.SummarizeSnapshot(snap)
	return &summary, nil
}

func (s *service) Participate(ctx context.Context, shareID, name string, drafts []model.ResponseDraft) (*Participation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("participant.name", "is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return nil, invalid("participant.name", "exceeds %d characters", maxNameLen)
	}
	if !shareid.Valid(shareID) {
		return nil, ErrEventNotFound
	}

	event, err := s.repo.GetEventByShareID(ctx, shareID)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, storageErr("get event", err)
	}

	options, err := s.repo.GetTimeOptionsByEventID(ctx, event.ID)
	if err != nil {
		return nil, storageErr("get time options", err)
	}
	owned := make(map[string]bool, len(options))
	for _, o := range options {
		owned[o.ID] = true
	}

	participant := &model.Participant{
		ID:        s.newID(),
		EventID:   event.ID,
		Name:      name,
		CreatedAt: s.now(),
	}

	responses := make([]model.Response, 0, len(drafts))
	seen := make(map[string]bool, len(drafts))
	for i, d := range drafts {
		field := fmt.Sprintf("availability[%d]", i)
		status, ok := model.ParseStatus(d.Status)
		if !ok {
			return nil, invalid(field+".status", "must be one of available, maybe, unavailable")
		}
		if !owned[d.TimeOptionID] {
			return nil, invalid(field+".timeOptionId", "does not belong to this event")
		}
		if seen[d.TimeOptionID] {
			return nil, invalid(field+".timeOptionId", "appears more than once")
		}
		seen[d.TimeOptionID] = true

		responses = append(responses, model.Response{
			ID:            s.newID(),
			ParticipantID: participant.ID,
			TimeOptionID:  d.TimeOptionID,
			Status:        status,
		})
	}

	created, err := s.repo.SubmitParticipationTx(ctx, participant, responses)
	if err != nil {
		if errors.Is(err, repo.ErrForeignTimeOption) {
			return nil, invalid("availability", "references a time option of another event")
		}
		return nil, storageErr("participate", err)
	}

	s.log.Info().
		Str("share_id", shareID).
		Str("participant_id", participant.ID).
		Bool("new_participant", created).
		Int("responses", len(responses)).
		Msg("participation stored")

	s.notify(ctx, model.ParticipationNotice{
		EventID:         event.ID,
		ShareID:         event.ShareID,
		ParticipantID:   participant.ID,
		ParticipantName: participant.Name,
		Created:         created,
		SubmittedAt:     s.now(),
	})

	return &Participation{ParticipantID: participant.ID, Created: created}, nil
}

func (s *service) notify(ctx context.Context, n model.ParticipationNotice) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyParticipation(ctx, n); err != nil {
		s.log.Warn().Err(err).Str("share_id", n.ShareID).Msg("failed to publish participation notice")
	}
}
