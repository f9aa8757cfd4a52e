package households

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status captures whether a household may be billed.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
	StatusVacant   Status = "Vacant"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusVacant:
		return true
	}
	return false
}

// Household is a registered dwelling unit identified by block and lot.
type Household struct {
	ID                 uuid.UUID `json:"id"`
	Block              string    `json:"block"`
	Lot                string    `json:"lot"`
	Type               string    `json:"type"`
	Status             Status    `json:"status"`
	Address            string    `json:"address"`
	SeniorCitizenCount int       `json:"seniorCitizenCount"`
	PWDCount           int       `json:"pwdCount"`
	SoloParentCount    int       `json:"soloParentCount"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Billable reports whether dues may be raised against the household.
func (h Household) Billable() bool {
	return h.Status == StatusActive
}

// ListFilters narrows household listings.
type ListFilters struct {
	Status Status
	Search string
	Page   int
	Limit  int
}

var (
	// ErrNotFound indicates the household does not exist.
	ErrNotFound = errors.New("households: not found")
	// ErrDuplicate indicates block and lot are already registered.
	ErrDuplicate = errors.New("households: block and lot already registered")
	// ErrInvalid indicates the submitted household failed validation.
	ErrInvalid = errors.New("households: invalid input")
)
