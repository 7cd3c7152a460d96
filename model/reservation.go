// model/reservation.go
package model

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusDenied     Status = "denied"
	StatusCancelled  Status = "cancelled"
	StatusCheckedOut Status = "checked out"
	StatusLate       Status = "late"
	StatusMissed     Status = "missed"
	StatusReturned   Status = "returned"
)

var validStatuses = map[Status]bool{
	StatusPending:    true,
	StatusApproved:   true,
	StatusDenied:     true,
	StatusCancelled:  true,
	StatusCheckedOut: true,
	StatusLate:       true,
	StatusMissed:     true,
	StatusReturned:   true,
}

// transitions is the reservation lifecycle graph. Statuses missing from the
// map are terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusApproved, StatusDenied, StatusCancelled},
	StatusApproved:   {StatusCheckedOut, StatusCancelled},
	StatusCheckedOut: {StatusLate, StatusReturned},
	StatusLate:       {StatusReturned, StatusMissed},
}

// ParseStatus normalizes a status token. Comparison is case-insensitive.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	return st, validStatuses[st]
}

// Active reports whether a reservation in this status still holds the item.
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCheckedOut, StatusLate:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	_, ok := transitions[s]
	return !ok
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Reservation is the raw table row. AdminID points at the admin/super user
// who last handled the reservation, if any.
type Reservation struct {
	ID            int64     `json:"id"`
	ItemID        int64     `json:"item"`
	UserID        int64     `json:"user"`
	StartDateTime time.Time `json:"startDateTime"`
	EndDateTime   time.Time `json:"endDateTime"`
	Status        Status    `json:"status"`
	AdminID       *int64    `json:"adminId,omitempty"`
}

// ReservationView is the hydrated reservation returned by the API: item,
// user and admin IDs are replaced with the expanded records. User and Admin
// are omitted for non-admin callers listing by item.
type ReservationView struct {
	ID            int64       `json:"id"`
	Item          *ItemDetail `json:"item"`
	User          *User       `json:"user,omitempty"`
	Admin         *User       `json:"admin,omitempty"`
	StartDateTime time.Time   `json:"startDateTime"`
	EndDateTime   time.Time   `json:"endDateTime"`
	Status        Status      `json:"status"`
}
