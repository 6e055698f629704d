package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/wb-go/wbf/dbpg"

	"meetpoll/internal/model"
)

const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"

	shareIDConstraint = "events_share_id_key"
)

var _ Repository = (*repository)(nil)

type repository struct {
	db      *dbpg.DB
	log     *zerolog.Logger
	backoff func() retry.Backoff
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{
		db:  db,
		log: log,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(3, retry.NewExponential(25*time.Millisecond))
		},
	}, nil
}

func (r *repository) Ping(ctx context.Context) error {
	return r.db.Master.PingContext(ctx)
}

func (r *repository) CreateEventTx(ctx context.Context, e *model.Event, options []model.TimeOption) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (id, title, description, duration, share_id, organizer_email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.Title, e.Description, e.Duration, e.ShareID, e.OrganizerEmail, e.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && pqErr.Constraint == shareIDConstraint {
			return ErrDuplicateShareID
		}
		return fmt.Errorf("failed to insert event: %w", err)
	}

	for _, o := range options {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO time_options (id, event_id, position, date, end_date, start_time, end_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, o.ID, e.ID, o.Position, o.Date, nullIfEmpty(o.EndDate), nullIfEmpty(o.StartTime), nullIfEmpty(o.EndTime))
		if err != nil {
			return fmt.Errorf("failed to insert time option %d: %w", o.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const selectEvent = `
	SELECT id, title, description, duration, share_id, organizer_email, created_at
	FROM events WHERE share_id = $1
`

const selectTimeOptions = `
	SELECT id, event_id, position,
	       to_char(date, 'YYYY-MM-DD'),
	       COALESCE(to_char(end_date, 'YYYY-MM-DD'), ''),
	       COALESCE(to_char(start_time, 'HH24:MI'), ''),
	       COALESCE(to_char(end_time, 'HH24:MI'), '')
	FROM time_options
	WHERE event_id = $1
	ORDER BY position ASC
`

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*model.Event, error) {
	var e model.Event
	if err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Duration, &e.ShareID, &e.OrganizerEmail, &e.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}
	return &e, nil
}

func scanTimeOptions(rows *sql.Rows) ([]model.TimeOption, error) {
	defer rows.Close()

	var options []model.TimeOption
	for rows.Next() {
		var o model.TimeOption
		if err := rows.Scan(
			&o.ID, &o.EventID, &o.Position, &o.Date, &o.EndDate, &o.StartTime, &o.EndTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan time option: %w", err)
		}
		o.Kind = model.KindSlot
		if o.EndDate != "" {
			o.Kind = model.KindRange
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

func (r *repository) GetEventByShareID(ctx context.Context, shareID string) (*model.Event, error) {
	return scanEvent(r.db.QueryRowContext(ctx, selectEvent, shareID))
}

func (r *repository) GetTimeOptionsByEventID(ctx context.Context, eventID string) ([]model.TimeOption, error) {
	rows, err := r.db.QueryContext(ctx, selectTimeOptions, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get time options: %w", err)
	}
	return scanTimeOptions(rows)
}

func (r *repository) GetEventSnapshot(ctx context.Context, shareID string) (*model.EventSnapshot, error) {
	tx, err := r.db.Master.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	e, err := scanEvent(tx.QueryRowContext(ctx, selectEvent, shareID))
	if err != nil {
		return nil, err
	}
	snap := &model.EventSnapshot{Event: *e}

	rows, err := tx.QueryContext(ctx, selectTimeOptions, e.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get time options: %w", err)
	}
	if snap.TimeOptions, err = scanTimeOptions(rows); err != nil {
		return nil, err
	}

	if snap.Participants, err = r.participantsTx(ctx, tx, e.ID); err != nil {
		return nil, err
	}
	if snap.Responses, err = r.responsesTx(ctx, tx, e.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return snap, nil
}

func (r *repository) participantsTx(ctx context.Context, tx *sql.Tx, eventID string) ([]model.Participant, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, event_id, name, created_at
		FROM participants
		WHERE event_id = $1
		ORDER BY created_at ASC, id ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.EventID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *repository) responsesTx(ctx context.Context, tx *sql.Tx, eventID string) ([]model.Response, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT r.id, r.participant_id, r.time_option_id, r.status
		FROM responses r
		JOIN participants p ON p.id = r.participant_id
		WHERE p.event_id = $1
		ORDER BY p.created_at ASC, p.id ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get responses: %w", err)
	}
	defer rows.Close()

	var responses []model.Response
	for rows.Next() {
		var res model.Response
		var status string
		if err := rows.Scan(&res.ID, &res.ParticipantID, &res.TimeOptionID, &status); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		res.Status = model.Status(status)
		responses = append(responses, res)
	}
	return responses, rows.Err()
}

func (r *repository) SubmitParticipationTx(ctx context.Context, p *model.Participant, responses []model.Response) (bool, error) {
	var created bool
	attempt := 0
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		attempt++
		c, err := r.submitParticipation(ctx, p, responses)
		if err != nil {
			if retryable(err) {
				r.log.Warn().Err(err).Int("attempt", attempt).Str("event_id", p.EventID).Msg("retrying participation")
				return retry.RetryableError(err)
			}
			return err
		}
		created = c
		return nil
	})
	return created, err
}

func (r *repository) submitParticipation(ctx context.Context, p *model.Participant, responses []model.Response) (bool, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// the unique index on (event_id, name_key) serializes concurrent
	// submissions under the same new name, the row lock serializes
	// replacements for an existing one
	created := true
	key := model.NameKey(p.Name)
	var id string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO participants (id, event_id, name, name_key, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id, name_key) DO NOTHING
		RETURNING id
	`, p.ID, p.EventID, p.Name, key, p.CreatedAt).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		created = false
		err = tx.QueryRowContext(ctx, `
			SELECT id, name, created_at
			FROM participants
			WHERE event_id = $1 AND name_key = $2
			FOR UPDATE
		`, p.EventID, key).Scan(&p.ID, &p.Name, &p.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNameConflict
		}
	}
	if err != nil {
		return false, fmt.Errorf("failed to resolve participant: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM responses WHERE participant_id = $1`, p.ID); err != nil {
		return false, fmt.Errorf("failed to delete previous responses: %w", err)
	}

	for _, res := range responses {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO responses (id, participant_id, time_option_id, status)
			SELECT $1::uuid, $2::uuid, t.id, $4::text
			FROM time_options t
			WHERE t.id = $3 AND t.event_id = $5
		`, res.ID, p.ID, res.TimeOptionID, string(res.Status), p.EventID)
		if err != nil {
			return false, fmt.Errorf("failed to insert response: %w", err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return false, ErrForeignTimeOption
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

func retryable(err error) bool {
	if errors.Is(err, ErrNameConflict) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqSerializationFailure, pqDeadlockDetected, pqUniqueViolation:
			return true
		}
	}
	return false
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
