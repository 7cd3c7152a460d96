package notifsvc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	itemrepo "labreserve/repository/item"
	resrepo "labreserve/repository/reservation"
	"labreserve/util/mailer"
)

// dueThresholds are the calendar-day distances that trigger a reminder.
var dueThresholds = map[int]bool{7: true, 2: true, 1: true}

type Service interface {
	// Scan mails a due-date reminder for every checked-out reservation on a
	// moveable item whose due date is exactly 7, 2 or 1 days away. Failures
	// on one reservation are logged and the scan keeps going.
	Scan(ctx context.Context) error
}

type service struct {
	r    resrepo.Repo
	ir   itemrepo.Repo
	mail mailer.Mailer
	log  *slog.Logger
	now  func() time.Time
}

func New(r resrepo.Repo, ir itemrepo.Repo, mail mailer.Mailer, log *slog.Logger) Service {
	return &service{r: r, ir: ir, mail: mail, log: log, now: time.Now}
}

func (s *service) Scan(ctx context.Context) error {
	due, err := s.r.ListDueCheckedOut(ctx)
	if err != nil {
		return err
	}

	today := s.now()
	sent := 0
	for _, row := range due {
		days := daysUntil(today, row.EndDateTime)
		if !dueThresholds[days] {
			continue
		}
		if err := s.notify(ctx, row, days); err != nil {
			s.log.Error("can't send due date notification",
				"reservation", row.ReservationID, "err", err)
			continue
		}
		sent++
	}

	s.log.Info("due date scan finished", "candidates", len(due), "sent", sent)
	return nil
}

func (s *service) notify(ctx context.Context, row resrepo.DueRow, days int) error {
	names, err := s.ir.ChildNames(ctx, row.ItemID)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(
		"Hello %s, we would like to advise you that your items: %s will be due %d day(s) from today.",
		row.UserFullName, strings.Join(names, ", "), days)

	return s.mail.Send(row.UserEmail, "Due date notification", body, nil, "")
}

// daysUntil counts whole calendar days between the two moments, ignoring the
// time of day on either side.
func daysUntil(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
