// Package ics builds calendar invites for confirmed reservations.
package ics

import (
	"fmt"

	ical "github.com/arran4/golang-ical"

	"labreserve/model"
)

// Builder produces an ICS blob for a reservation so it can be attached to
// the confirmation email.
type Builder interface {
	Build(res *model.ReservationView) ([]byte, error)
}

type builder struct{}

func New() Builder { return builder{} }

func (builder) Build(res *model.ReservationView) ([]byte, error) {
	if res.Item == nil {
		return nil, fmt.Errorf("reservation %d has no item attached", res.ID)
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodRequest)

	ev := cal.AddEvent(fmt.Sprintf("reservation-%d", res.ID))
	ev.SetSummary("Item Reservation")
	ev.SetDescription(fmt.Sprintf("Item reservation: %s", res.Item.Name))
	ev.SetStartAt(res.StartDateTime.UTC())
	ev.SetEndAt(res.EndDateTime.UTC())

	return []byte(cal.Serialize()), nil
}
