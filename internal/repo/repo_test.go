package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"meetpoll/internal/model"
	"meetpoll/internal/shareid"
)

// repositories returns the in-memory store and, when DATABASE_URL is set,
// a migrated Postgres store.
func repositories(t *testing.T) map[string]Repository {
	t.Helper()
	repos := map[string]Repository{"memory": NewMemory()}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return repos
	}
	log := zerolog.Nop()
	if err := MigrateUp(dsn, "../../migrations/postgres", &log); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := dbpg.New(dsn, nil, &dbpg.Options{MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: time.Minute})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Master.Close() })
	pg, err := NewRepository(db, &log)
	if err != nil {
		t.Fatal(err)
	}
	repos["postgres"] = pg
	return repos
}

func newEvent(t *testing.T, r Repository, slots int) (*model.Event, []model.TimeOption) {
	t.Helper()
	e := &model.Event{
		ID:        uuid.NewString(),
		Title:     "Lunch",
		Duration:  "1 hour",
		ShareID:   shareid.New(),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	var opts []model.TimeOption
	for i := 0; i < slots; i++ {
		opts = append(opts, model.TimeOption{
			ID:        uuid.NewString(),
			EventID:   e.ID,
			Position:  i,
			Kind:      model.KindSlot,
			Date:      fmt.Sprintf("2025-01-%02d", 10+i),
			StartTime: "12:00",
			EndTime:   "13:00",
		})
	}
	if err := r.CreateEventTx(context.Background(), e, opts); err != nil {
		t.Fatalf("CreateEventTx: %v", err)
	}
	return e, opts
}

func newParticipant(e *model.Event, name string) *model.Participant {
	return &model.Participant{ID: uuid.NewString(), EventID: e.ID, Name: name, CreatedAt: time.Now().UTC()}
}

func responses(p *model.Participant, status model.Status, opts ...model.TimeOption) []model.Response {
	var out []model.Response
	for _, o := range opts {
		out = append(out, model.Response{ID: uuid.NewString(), ParticipantID: p.ID, TimeOptionID: o.ID, Status: status})
	}
	return out
}

func TestCreateAndRead(t *testing.T) {
	for name, r := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			e, opts := newEvent(t, r, 3)

			got, err := r.GetEventByShareID(ctx, e.ShareID)
			if err != nil {
				t.Fatal(err)
			}
			if got.ID != e.ID || got.Title != e.Title {
				t.Errorf("event = %+v", got)
			}

			stored, err := r.GetTimeOptionsByEventID(ctx, e.ID)
			if err != nil {
				t.Fatal(err)
			}
			if len(stored) != len(opts) {
				t.Fatalf("got %d options, want %d", len(stored), len(opts))
			}
			for i := range opts {
				if stored[i].ID != opts[i].ID || stored[i].Date != opts[i].Date || stored[i].StartTime != "12:00" {
					t.Errorf("option %d = %+v, want %+v", i, stored[i], opts[i])
				}
			}
		})
	}
}

func TestRangeOptionRoundTrip(t *testing.T) {
	for name, r := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			e := &model.Event{ID: uuid.NewString(), Title: "Trip", Duration: "3 days", ShareID: shareid.New(), CreatedAt: time.Now().UTC()}
			o := model.TimeOption{ID: uuid.NewString(), EventID: e.ID, Kind: model.KindRange, Date: "2025-02-01", EndDate: "2025-02-03"}
			if err := r.CreateEventTx(context.Background(), e, []model.TimeOption{o}); err != nil {
				t.Fatal(err)
			}
			stored, err := r.GetTimeOptionsByEventID(context.Background(), e.ID)
			if err != nil {
				t.Fatal(err)
			}
			if len(stored) != 1 || stored[0].Kind != model.KindRange || stored[0].EndDate != "2025-02-03" || stored[0].StartTime != "" {
				t.Errorf("stored = %+v", stored)
			}
		})
	}
}

func TestDuplicateShareID(t *testing.T) {
	for name, r := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			e, _ := newEvent(t, r, 1)
			dup := &model.Event{ID: uuid.NewString(), Title: "Other", Duration: "1 hour", ShareID: e.ShareID, CreatedAt: time.Now().UTC()}
			if err := r.CreateEventTx(context.Background(), dup, nil); !errors.Is(err, ErrDuplicateShareID) {
				t.Errorf("err = %v, want ErrDuplicateShareID", err)
			}
		})
	}
}

func TestUnknownShareID(t *testing.T) {
	for name, r := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := r.GetEventByShareID(ctx, "nonexistent"); !errors.Is(err, ErrEventNotFound) {
				t.Errorf("GetEventByShareID err = %v", err)
			}
			if _, err := r.GetEventSnapshot(ctx, "nonexistent"); !errors.Is(err, ErrEventNotFound) {
				t.Errorf("GetEventSnapshot err = %v", err)
			}
		})
	}
}

func TestSubmitParticipationUpserts(t *testing.T) {
	for name, r := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			e, opts := newEvent(t, r, 2)

			p := newParticipant(e, "Alice")
			created, err := r.SubmitParticipationTx(ctx, p, responses(p, model.StatusAvailable, opts...))
			if err != nil || !created {
				t.Fatalf("first submit: created=%v err=%v", created, err)
			}
			firstID := p.ID

			again := newParticipant(e, "ALICE")
			created, err = r.SubmitParticipationTx(ctx, again, responses(again, model.StatusMaybe, opts[0]))
			if err != nil || created {
				t.Fatalf("second submit: created=%v err=%v", created, err)
			}
			if again.ID != firstID || again.Name != "Alice" {
				t.Errorf("resolved participant = %+v, want id %s named Alice", again, firstID)
			}

			snap, err := r.GetEventSnapshot(ctx, e.ShareID)
			if err != nil {
				t.Fatal(err)
			}
			if len(snap.Participants) != 1 {
				t.Fatalf("participants = %+v", snap.Participants)
			}
			if len(snap.Responses) != 1 || snap.Responses[0].Status != model.StatusMaybe || snap.Responses[0].ParticipantID != firstID {
				t.Errorf("responses = %+v, want the replaced single maybe", snap.Responses)
			}
		})
	}
}

func TestSubmitParticipationFoldsNonASCIINames(t *testing.T) {
	for name, r := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			e, opts := newEvent(t, r, 1)

			p := newParticipant(e, "Élodie")
			if _, err := r.SubmitParticipationTx(ctx, p, responses(p, model.StatusAvailable, opts...)); err != nil {
				t.Fatal(err)
			}
			again := newParticipant(e, "ÉLODIE")
			created, err := r.SubmitParticipationTx(ctx, again, responses(again, model.StatusMaybe, opts...))
			if err != nil || created {
				t.Fatalf("second submit: created=%v err=%v", created, err)
			}
			if again.ID != p.ID || again.Name != "Élodie" {
				t.Errorf("resolved participant = %+v, want id %s named Élodie", again, p.ID)
			}
		})
	}
}

func TestSubmitParticipationRejectsForeignOption(t *testing.T) {
	for name, r := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			e, _ := newEvent(t, r, 1)
			_, otherOpts := newEvent(t, r, 1)

			p := newParticipant(e, "Mallory")
			_, err := r.SubmitParticipationTx(ctx, p, responses(p, model.StatusAvailable, otherOpts[0]))
			if !errors.Is(err, ErrForeignTimeOption) {
				t.Fatalf("err = %v, want ErrForeignTimeOption", err)
			}

			snap, err := r.GetEventSnapshot(ctx, e.ShareID)
			if err != nil {
				t.Fatal(err)
			}
			if len(snap.Participants) != 0 || len(snap.Responses) != 0 {
				t.Errorf("rejected submission left data behind: %+v", snap)
			}
		})
	}
}

func TestConcurrentSameNameSubmissions(t *testing.T) {
	for name, r := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			e, opts := newEvent(t, r, 1)

			var wg sync.WaitGroup
			errs := make(chan error, 10)
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					p := newParticipant(e, "Grace")
					if _, err := r.SubmitParticipationTx(ctx, p, responses(p, model.StatusAvailable, opts...)); err != nil {
						errs <- err
					}
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Error(err)
			}

			snap, err := r.GetEventSnapshot(ctx, e.ShareID)
			if err != nil {
				t.Fatal(err)
			}
			if len(snap.Participants) != 1 || len(snap.Responses) != 1 {
				t.Errorf("participants=%d responses=%d, want 1 and 1", len(snap.Participants), len(snap.Responses))
			}
		})
	}
}
