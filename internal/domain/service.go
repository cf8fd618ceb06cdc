package domain

import "time"

type ServiceRequirement struct {
	ID              int64
	Name            string
	DurationMinutes int
}

func (s ServiceRequirement) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}
