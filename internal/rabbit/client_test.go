package rabbit

import (
	"testing"
	"time"

	"meetpoll/internal/model"
)

func TestNoticeCodec(t *testing.T) {
	n := model.ParticipationNotice{
		EventID:         "e1",
		ShareID:         "AbCdEfGhIj",
		ParticipantID:   "p1",
		ParticipantName: "Bob",
		Created:         true,
		SubmittedAt:     time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
	}
	body, err := EncodeNotice(n)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeNotice(body)
	if err != nil {
		t.Fatal(err)
	}
	if got != n {
		t.Errorf("got %+v, want %+v", got, n)
	}
}

func TestDecodeNoticeRejectsGarbage(t *testing.T) {
	for _, body := range []string{"", "{", `{"event_id":"e1"}`} {
		if _, err := DecodeNotice([]byte(body)); err == nil {
			t.Errorf("%q: expected error", body)
		}
	}
}
