package repo

import (
	"context"
	"sync"

	"meetpoll/internal/model"
)

var _ Repository = (*Memory)(nil)

// Memory keeps everything in process. Every method holds the lock for its
// whole body, which gives it the same atomicity as the Postgres transactions.
type Memory struct {
	mu           sync.RWMutex
	events       map[string]model.Event // by share id
	options      map[string][]model.TimeOption
	participants map[string][]model.Participant
	responses    map[string][]model.Response // by participant id
}

func NewMemory() *Memory {
	return &Memory{
		events:       make(map[string]model.Event),
		options:      make(map[string][]model.TimeOption),
		participants: make(map[string][]model.Participant),
		responses:    make(map[string][]model.Response),
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) CreateEventTx(_ context.Context, e *model.Event, options []model.TimeOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[e.ShareID]; ok {
		return ErrDuplicateShareID
	}
	m.events[e.ShareID] = *e

	stored := make([]model.TimeOption, len(options))
	for i, o := range options {
		o.EventID = e.ID
		stored[i] = o
	}
	m.options[e.ID] = stored
	return nil
}

func (m *Memory) GetEventByShareID(_ context.Context, shareID string) (*model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.events[shareID]
	if !ok {
		return nil, ErrEventNotFound
	}
	return &e, nil
}

func (m *Memory) GetTimeOptionsByEventID(_ context.Context, eventID string) ([]model.TimeOption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]model.TimeOption(nil), m.options[eventID]...), nil
}

func (m *Memory) GetEventSnapshot(_ context.Context, shareID string) (*model.EventSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.events[shareID]
	if !ok {
		return nil, ErrEventNotFound
	}

	snap := &model.EventSnapshot{
		Event:        e,
		TimeOptions:  append([]model.TimeOption(nil), m.options[e.ID]...),
		Participants: append([]model.Participant(nil), m.participants[e.ID]...),
	}
	for _, p := range snap.Participants {
		snap.Responses = append(snap.Responses, m.responses[p.ID]...)
	}
	return snap, nil
}

func (m *Memory) SubmitParticipationTx(_ context.Context, p *model.Participant, responses []model.Response) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	owned := make(map[string]bool, len(m.options[p.EventID]))
	for _, o := range m.options[p.EventID] {
		owned[o.ID] = true
	}
	for _, r := range responses {
		if !owned[r.TimeOptionID] {
			return false, ErrForeignTimeOption
		}
	}

	created := true
	key := model.NameKey(p.Name)
	for _, existing := range m.participants[p.EventID] {
		if model.NameKey(existing.Name) == key {
			*p = existing
			created = false
			break
		}
	}
	if created {
		m.participants[p.EventID] = append(m.participants[p.EventID], *p)
	}

	stored := make([]model.Response, len(responses))
	for i, r := range responses {
		r.ParticipantID = p.ID
		stored[i] = r
	}
	m.responses[p.ID] = stored
	return created, nil
}
