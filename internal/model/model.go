package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Status is a participant's answer for a single time option.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusMaybe       Status = "maybe"
	StatusUnavailable Status = "unavailable"
)

// ParseStatus accepts only the literal status labels.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusAvailable, StatusMaybe, StatusUnavailable:
		return Status(s), true
	}
	return "", false
}

// DurationLabels is the closed list offered to organizers. The server only
// requires a non-empty label.
var DurationLabels = []string{
	"30 minutes",
	"1 hour",
	"2 hours",
	"3 hours",
	"4 hours",
	"All day",
	"2 days",
	"3 days",
	"A week",
}

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

type Event struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Duration       string    `json:"duration"`
	ShareID        string    `json:"share_id"`
	OrganizerEmail string    `json:"organizer_email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// TimeOptionKind tells a clock-bounded slot apart from a multi-day range.
type TimeOptionKind string

const (
	KindSlot  TimeOptionKind = "slot"
	KindRange TimeOptionKind = "range"
)

// TimeOption is either a slot (Date, StartTime, EndTime) or a range
// (Date through EndDate). Times are empty for ranges unless the organizer
// supplied them.
type TimeOption struct {
	ID        string         `json:"id"`
	EventID   string         `json:"event_id"`
	Position  int            `json:"position"`
	Kind      TimeOptionKind `json:"kind"`
	Date      string         `json:"date"`
	StartTime string         `json:"start_time,omitempty"`
	EndTime   string         `json:"end_time,omitempty"`
	EndDate   string         `json:"end_date,omitempty"`
}

type Participant struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Response is the "availability" of one participant for one time option.
type Response struct {
	ID            string `json:"id"`
	ParticipantID string `json:"participant_id"`
	TimeOptionID  string `json:"time_option_id"`
	Status        Status `json:"status"`
}

// NameKey is the case-insensitive identity of a participant name within an
// event. Every storage driver matches participants on this key.
func NameKey(name string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(name)))
}

// EventDraft is an unpersisted event as submitted by an organizer.
type EventDraft struct {
	Title          string
	Description    string
	Duration       string
	OrganizerEmail string
}

type TimeOptionDraft struct {
	Date      string
	StartTime string
	EndTime   string
	EndDate   string
}

type ResponseDraft struct {
	TimeOptionID string
	Status       string
}

// EventSnapshot is everything stored for one event, read at a single point in time.
type EventSnapshot struct {
	Event        Event
	TimeOptions  []TimeOption
	Participants []Participant
	Responses    []Response
}

type AvailabilityCount struct {
	Available   int `json:"available"`
	Maybe       int `json:"maybe"`
	Unavailable int `json:"unavailable"`
	Total       int `json:"total"`
}

type ParticipantStatus struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// TimeOptionSummary is a time option with its aggregated responses.
type TimeOptionSummary struct {
	TimeOption
	Counts       AvailabilityCount   `json:"availability"`
	Participants []ParticipantStatus `json:"participants"`
}

// EventSummary is the fully aggregated view served to share-link visitors.
type EventSummary struct {
	Event
	TimeOptions       []TimeOptionSummary `json:"time_options"`
	ParticipantCount  int                 `json:"participant_count"`
	BestTimeOptionIDs []string            `json:"best_time_option_ids"`
}

// ParticipationNotice is published after a participant's responses were stored.
type ParticipationNotice struct {
	EventID         string    `json:"event_id"`
	ShareID         string    `json:"share_id"`
	ParticipantID   string    `json:"participant_id"`
	ParticipantName string    `json:"participant_name"`
	Created         bool      `json:"created"`
	SubmittedAt     time.Time `json:"submitted_at"`
}
