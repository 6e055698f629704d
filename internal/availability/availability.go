// Package availability aggregates participant responses per time option and
// picks the best option(s) of an event. Everything here is a pure function of
// its inputs; callers re-run it on every read.
package availability

import "meetpoll/internal/model"

// UnknownParticipant is shown when a response points at a participant that
// cannot be resolved.
const UnknownParticipant = "Unknown"

// Count tallies responses by status. Statuses outside the closed set are not
// counted, so Total is always the sum of the three buckets.
func Count(responses []model.Response) model.AvailabilityCount {
	var c model.AvailabilityCount
	for _, r := range responses {
		switch r.Status {
		case model.StatusAvailable:
			c.Available++
		case model.StatusMaybe:
			c.Maybe++
		case model.StatusUnavailable:
			c.Unavailable++
		}
	}
	c.Total = c.Available + c.Maybe + c.Unavailable
	return c
}

// Summarize builds the counts and the participant-status list of one option.
// responses must already be restricted to opt; names maps participant id to
// display name.
func Summarize(opt model.TimeOption, responses []model.Response, names map[string]string) model.TimeOptionSummary {
	participants := make([]model.ParticipantStatus, 0, len(responses))
	for _, r := range responses {
		name, ok := names[r.ParticipantID]
		if !ok {
			name = UnknownParticipant
		}
		participants = append(participants, model.ParticipantStatus{Name: name, Status: r.Status})
	}
	return model.TimeOptionSummary{
		TimeOption:   opt,
		Counts:       Count(responses),
		Participants: participants,
	}
}

// SummarizeSnapshot aggregates every option of a snapshot in option order.
func SummarizeSnapshot(s *model.EventSnapshot) model.EventSummary {
	names := make(map[string]string, len(s.Participants))
	for _, p := range s.Participants {
		names[p.ID] = p.Name
	}

	byOption := make(map[string][]model.Response, len(s.TimeOptions))
	for _, r := range s.Responses {
		byOption[r.TimeOptionID] = append(byOption[r.TimeOptionID], r)
	}

	summaries := make([]model.TimeOptionSummary, 0, len(s.TimeOptions))
	for _, opt := range s.TimeOptions {
		summaries = append(summaries, Summarize(opt, byOption[opt.ID], names))
	}

	best := Best(summaries)
	bestIDs := make([]string, 0, len(best))
	for _, b := range best {
		bestIDs = append(bestIDs, b.ID)
	}

	return model.EventSummary{
		Event:             s.Event,
		TimeOptions:       summaries,
		ParticipantCount:  len(s.Participants),
		BestTimeOptionIDs: bestIDs,
	}
}

// Best returns every option that maximizes the available count and, among
// those, the maybe count. Ties on both keys are all kept, in input order.
// Nothing is recommended when there are no options or no responses at all.
func Best(options []model.TimeOptionSummary) []model.TimeOptionSummary {
	total := 0
	for _, o := range options {
		total += o.Counts.Total
	}
	if len(options) == 0 || total == 0 {
		return nil
	}

	maxAvailable := 0
	for _, o := range options {
		if o.Counts.Available > maxAvailable {
			maxAvailable = o.Counts.Available
		}
	}

	var top []model.TimeOptionSummary
	maxMaybe := 0
	for _, o := range options {
		if o.Counts.Available != maxAvailable {
			continue
		}
		top = append(top, o)
		if o.Counts.Maybe > maxMaybe {
			maxMaybe = o.Counts.Maybe
		}
	}

	best := make([]model.TimeOptionSummary, 0, len(top))
	for _, o := range top {
		if o.Counts.Maybe == maxMaybe {
			best = append(best, o)
		}
	}
	return best
}
