package mailer

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"meetpoll/internal/model"
)

func summary() *model.EventSummary {
	slot := model.TimeOption{ID: "a", Kind: model.KindSlot, Date: "2025-01-10", StartTime: "12:00", EndTime: "13:00"}
	rng := model.TimeOption{ID: "b", Kind: model.KindRange, Date: "2025-01-11", EndDate: "2025-01-13"}
	return &model.EventSummary{
		Event:            model.Event{Title: "Lunch", ShareID: "AbCdEfGhIj"},
		ParticipantCount: 2,
		TimeOptions: []model.TimeOptionSummary{
			{TimeOption: slot, Counts: model.AvailabilityCount{Available: 2, Total: 2}},
			{TimeOption: rng, Counts: model.AvailabilityCount{Maybe: 1, Unavailable: 1, Total: 2}},
		},
		BestTimeOptionIDs: []string{"a"},
	}
}

func TestComposeDigest(t *testing.T) {
	subject, body := ComposeDigest(summary(), "https://meet.example.com/e/AbCdEfGhIj")

	if subject != `"Lunch": 2 responses so far` {
		t.Errorf("subject = %q", subject)
	}
	for _, want := range []string{
		"2 people have answered",
		"2025-01-10 12:00-13:00 (2 available, 0 maybe)",
		"https://meet.example.com/e/AbCdEfGhIj",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "2025-01-11") {
		t.Errorf("body lists a non-best option:\n%s", body)
	}
}

func TestComposeDigestWithoutBest(t *testing.T) {
	s := summary()
	s.BestTimeOptionIDs = nil
	_, body := ComposeDigest(s, "")
	if !strings.Contains(body, "No time stands out yet") {
		t.Errorf("body = %s", body)
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		opt  model.TimeOption
		want string
	}{
		{model.TimeOption{Kind: model.KindSlot, Date: "2025-01-10", StartTime: "09:00", EndTime: "10:30"}, "2025-01-10 09:00-10:30"},
		{model.TimeOption{Kind: model.KindRange, Date: "2025-01-10", EndDate: "2025-01-12"}, "2025-01-10 to 2025-01-12"},
		{model.TimeOption{Kind: model.KindRange, Date: "2025-01-10", EndDate: "2025-01-12", StartTime: "09:00", EndTime: "17:00"}, "2025-01-10 09:00 to 2025-01-12 17:00"},
	}
	for _, tt := range tests {
		if got := Label(tt.opt); got != tt.want {
			t.Errorf("Label(%+v) = %q, want %q", tt.opt, got, tt.want)
		}
	}
}

func TestSendDigest(t *testing.T) {
	log := zerolog.Nop()

	t.Run("log only", func(t *testing.T) {
		m := New(Config{}, &log)
		m.send = func(string, smtp.Auth, string, []string, []byte) error {
			t.Fatal("send called without host")
			return nil
		}
		if err := m.SendDigest("org@example.com", summary(), ""); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("smtp", func(t *testing.T) {
		m := New(Config{Host: "smtp.example.com", Port: 2525, From: "poll@example.com"}, &log)
		var gotAddr string
		var gotMsg []byte
		m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotMsg = addr, msg
			if from != "poll@example.com" || len(to) != 1 || to[0] != "org@example.com" {
				t.Errorf("from=%s to=%v", from, to)
			}
			return nil
		}
		if err := m.SendDigest("org@example.com", summary(), ""); err != nil {
			t.Fatal(err)
		}
		if gotAddr != "smtp.example.com:2525" {
			t.Errorf("addr = %s", gotAddr)
		}
		if !strings.Contains(string(gotMsg), "Subject: \"Lunch\": 2 responses so far") {
			t.Errorf("msg = %s", gotMsg)
		}
	})

	t.Run("failure", func(t *testing.T) {
		m := New(Config{Host: "smtp.example.com", Port: 25, From: "poll@example.com"}, &log)
		m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
		if err := m.SendDigest("org@example.com", summary(), ""); err == nil {
			t.Error("expected error")
		}
	})
}
