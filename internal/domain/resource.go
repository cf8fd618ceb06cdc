package domain

type ResourceStatus string

const (
	ResourceStatusActive   ResourceStatus = "active"
	ResourceStatusInactive ResourceStatus = "inactive"
)

// Resource is a barber. ExternalID is the id the calendar provider knows it by.
type Resource struct {
	ID         int64
	ExternalID string
	Name       string
	Pooled     bool
	Status     ResourceStatus
}

func (r Resource) Active() bool {
	return r.Status == ResourceStatusActive
}
