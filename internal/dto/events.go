package dto

import (
	"strings"
	"time"

	"meetpoll/internal/model"
)

type CreateEventRequest struct {
	Event       EventRequest        `json:"event"`
	TimeOptions []TimeOptionRequest `json:"timeOptions" validate:"required,min=1,max=100,dive"`
}

type EventRequest struct {
	Title          string `json:"title" validate:"notblank,max=200"`
	Description    string `json:"description" validate:"max=2000"`
	Duration       string `json:"duration" validate:"notblank,max=50"`
	OrganizerEmail string `json:"organizerEmail" validate:"omitempty,email"`
}

type TimeOptionRequest struct {
	Date      string `json:"date" validate:"required,date"`
	StartTime string `json:"startTime" validate:"omitempty,clock"`
	EndTime   string `json:"endTime" validate:"omitempty,clock"`
	EndDate   string `json:"endDate" validate:"omitempty,date"`
}

func (r CreateEventRequest) Drafts() (model.EventDraft, []model.TimeOptionDraft) {
	draft := model.EventDraft{
		Title:          r.Event.Title,
		Description:    r.Event.Description,
		Duration:       r.Event.Duration,
		OrganizerEmail: r.Event.OrganizerEmail,
	}
	options := make([]model.TimeOptionDraft, len(r.TimeOptions))
	for i, o := range r.TimeOptions {
		options[i] = model.TimeOptionDraft{
			Date:      o.Date,
			StartTime: o.StartTime,
			EndTime:   o.EndTime,
			EndDate:   o.EndDate,
		}
	}
	return draft, options
}

type ParticipateRequest struct {
	Participant  ParticipantRequest `json:"participant"`
	Availability []ResponseRequest  `json:"availability" validate:"max=500,dive"`
}

type ParticipantRequest struct {
	Name string `json:"name" validate:"notblank,max=100"`
}

type ResponseRequest struct {
	TimeOptionID string `json:"timeOptionId" validate:"required"`
	Status       string `json:"status" validate:"status"`
}

func (r ParticipateRequest) Drafts() []model.ResponseDraft {
	drafts := make([]model.ResponseDraft, len(r.Availability))
	for i, a := range r.Availability {
		drafts[i] = model.ResponseDraft{TimeOptionID: a.TimeOptionID, Status: a.Status}
	}
	return drafts
}

type EventResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    string    `json:"duration"`
	ShareID     string    `json:"shareId"`
	ShareURL    string    `json:"shareUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type TimeOptionResponse struct {
	ID        string `json:"id"`
	EventID   string `json:"eventId"`
	Kind      string `json:"kind"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	EndDate   string `json:"endDate,omitempty"`
}

type CreateEventResponse struct {
	Event       EventResponse        `json:"event"`
	TimeOptions []TimeOptionResponse `json:"timeOptions"`
}

type ParticipantStatusResponse struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type TimeOptionSummaryResponse struct {
	TimeOptionResponse
	Availability model.AvailabilityCount     `json:"availability"`
	Participants []ParticipantStatusResponse `json:"participants"`
	IsBest       bool                        `json:"isBest"`
}

type EventDetailsResponse struct {
	ID                string                      `json:"id"`
	Title             string                      `json:"title"`
	Description       string                      `json:"description"`
	Duration          string                      `json:"duration"`
	ShareID           string                      `json:"shareId"`
	CreatedAt         time.Time                   `json:"createdAt"`
	ParticipantCount  int                         `json:"participantCount"`
	TimeOptions       []TimeOptionSummaryResponse `json:"timeOptions"`
	BestTimeOptionIDs []string                    `json:"bestTimeOptionIds"`
}

// DurationsResponse lists the duration labels an organizer can pick from.
type DurationsResponse struct {
	Durations []string `json:"durations"`
}

type ParticipateResponse struct {
	Success       bool   `json:"success"`
	ParticipantID string `json:"participantId"`
}

// ShareURL joins base and the share path. An empty base yields "".
func ShareURL(base, shareID string) string {
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/e/" + shareID
}

func NewEventResponse(e *model.Event, shareBaseURL string) EventResponse {
	return EventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Duration:    e.Duration,
		ShareID:     e.ShareID,
		ShareURL:    ShareURL(shareBaseURL, e.ShareID),
		CreatedAt:   e.CreatedAt,
	}
}

func NewTimeOptionResponse(o model.TimeOption) TimeOptionResponse {
	return TimeOptionResponse{
		ID:        o.ID,
		EventID:   o.EventID,
		Kind:      string(o.Kind),
		Date:      o.Date,
		StartTime: o.StartTime,
		EndTime:   o.EndTime,
		EndDate:   o.EndDate,
	}
}

func NewCreateEventResponse(e *model.Event, options []model.TimeOption, shareBaseURL string) CreateEventResponse {
	resp := CreateEventResponse{
		Event:       NewEventResponse(e, shareBaseURL),
		TimeOptions: make([]TimeOptionResponse, len(options)),
	}
	for i, o := range options {
		resp.TimeOptions[i] = NewTimeOptionResponse(o)
	}
	return resp
}

func NewEventDetailsResponse(s *model.EventSummary) EventDetailsResponse {
	best := make(map[string]bool, len(s.BestTimeOptionIDs))
	for _, id := range s.BestTimeOptionIDs {
		best[id] = true
	}

	resp := EventDetailsResponse{
		ID:                s.ID,
		Title:             s.Title,
		Description:       s.Description,
		Duration:          s.Duration,
		ShareID:           s.ShareID,
		CreatedAt:         s.CreatedAt,
		ParticipantCount:  s.ParticipantCount,
		TimeOptions:       make([]TimeOptionSummaryResponse, len(s.TimeOptions)),
		BestTimeOptionIDs: append([]string{}, s.BestTimeOptionIDs...),
	}
	for i, o := range s.TimeOptions {
		participants := make([]ParticipantStatusResponse, len(o.Participants))
		for j, p := range o.Participants {
			participants[j] = ParticipantStatusResponse{Name: p.Name, Status: string(p.Status)}
		}
		resp.TimeOptions[i] = TimeOptionSummaryResponse{
			TimeOptionResponse: NewTimeOptionResponse(o.TimeOption),
			Availability:       o.Counts,
			Participants:       participants,
			IsBest:             best[o.ID],
		}
	}
	return resp
}
