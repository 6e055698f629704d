package dto

import (
	"encoding/json"
	"strings"
	"testing"

	"meetpoll/internal/model"
)

func TestShareURL(t *testing.T) {
	tests := []struct {
		base, want string
	}{
		{"", ""},
		{"https://meet.example.com", "https://meet.example.com/e/AbCdEfGhIj"},
		{"https://meet.example.com/", "https://meet.example.com/e/AbCdEfGhIj"},
	}
	for _, tt := range tests {
		if got := ShareURL(tt.base, "AbCdEfGhIj"); got != tt.want {
			t.Errorf("ShareURL(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestNewEventDetailsResponse(t *testing.T) {
	s := &model.EventSummary{
		Event: model.Event{ID: "e1", Title: "Lunch", ShareID: "AbCdEfGhIj"},
		TimeOptions: []model.TimeOptionSummary{
			{
				TimeOption:   model.TimeOption{ID: "a", EventID: "e1", Kind: model.KindSlot, Date: "2025-01-10", StartTime: "12:00", EndTime: "13:00"},
				Counts:       model.AvailabilityCount{Available: 1, Total: 1},
				Participants: []model.ParticipantStatus{{Name: "Bob", Status: model.StatusAvailable}},
			},
			{
				TimeOption: model.TimeOption{ID: "b", EventID: "e1", Kind: model.KindSlot, Date: "2025-01-11", StartTime: "12:00", EndTime: "13:00"},
			},
		},
		ParticipantCount:  1,
		BestTimeOptionIDs: []string{"a"},
	}

	resp := NewEventDetailsResponse(s)
	if !resp.TimeOptions[0].IsBest || resp.TimeOptions[1].IsBest {
		t.Errorf("isBest flags = %v, %v", resp.TimeOptions[0].IsBest, resp.TimeOptions[1].IsBest)
	}

	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`"shareId":"AbCdEfGhIj"`,
		`"participantCount":1`,
		`"bestTimeOptionIds":["a"]`,
		`"availability":{"available":1,"maybe":0,"unavailable":0,"total":1}`,
		`"participants":[{"name":"Bob","status":"available"}]`,
		`"participants":[]`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("body missing %s:\n%s", want, body)
		}
	}
}

func TestNewEventDetailsResponseEmptyBest(t *testing.T) {
	resp := NewEventDetailsResponse(&model.EventSummary{})
	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), `"bestTimeOptionIds":[]`) || !strings.Contains(string(body), `"timeOptions":[]`) {
		t.Errorf("body = %s", body)
	}
}
