package domain

import "time"

// Slot is an open window reported by the availability source. ResourceRef is
// either the decimal resource id or the resource's external calendar id.
type Slot struct {
	ResourceRef string
	Start       time.Time
	Duration    time.Duration
}

func (s Slot) End() time.Time {
	return s.Start.Add(s.Duration)
}

type SearchOutcome string

const (
	SearchOutcomeFound    SearchOutcome = "found"
	SearchOutcomeDegraded SearchOutcome = "degraded"
	SearchOutcomeNotFound SearchOutcome = "not_found"
)

// EarliestSlotResult is the answer to an earliest-slot search. Slot is nil
// unless Outcome is found; Resource is nil when nothing was found.
type EarliestSlotResult struct {
	Outcome  SearchOutcome
	Slot     *Slot
	Resource *Resource
}
