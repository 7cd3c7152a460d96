package notifsvc

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	itemrepo "labreserve/repository/item"
	resrepo "labreserve/repository/reservation"
)

type mockResRepo struct {
	resrepo.Repo

	due []resrepo.DueRow
	err error
}

func (m *mockResRepo) ListDueCheckedOut(ctx context.Context) ([]resrepo.DueRow, error) {
	return m.due, m.err
}

type mockItemRepo struct {
	itemrepo.Repo

	names map[int64][]string
}

func (m *mockItemRepo) ChildNames(ctx context.Context, itemID int64) ([]string, error) {
	names, ok := m.names[itemID]
	if !ok {
		return nil, errors.New("no such item")
	}
	return names, nil
}

type sentMail struct {
	to, subject, body string
}

type mockMailer struct {
	sent []sentMail
	err  error
}

func (m *mockMailer) Send(to, subject, body string, attachment []byte, filename string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

var scanNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func newScanner(res *mockResRepo, items *mockItemRepo, mail *mockMailer) Service {
	return &service{
		r:    res,
		ir:   items,
		mail: mail,
		log:  slog.Default(),
		now:  func() time.Time { return scanNow },
	}
}

func dueIn(days int) time.Time {
	// Early morning on the target day; only the calendar date should matter.
	return time.Date(2026, 3, 10+days, 1, 0, 0, 0, time.UTC)
}

func TestScan_MailsOnThresholdDays(t *testing.T) {
	res := &mockResRepo{due: []resrepo.DueRow{
		{ReservationID: 1, ItemID: 10, UserEmail: "a@example.edu", UserFullName: "Ana A", EndDateTime: dueIn(7)},
		{ReservationID: 2, ItemID: 10, UserEmail: "b@example.edu", UserFullName: "Bo B", EndDateTime: dueIn(2)},
		{ReservationID: 3, ItemID: 10, UserEmail: "c@example.edu", UserFullName: "Cy C", EndDateTime: dueIn(1)},
		{ReservationID: 4, ItemID: 10, UserEmail: "d@example.edu", UserFullName: "Di D", EndDateTime: dueIn(3)},
		{ReservationID: 5, ItemID: 10, UserEmail: "e@example.edu", UserFullName: "Ed E", EndDateTime: dueIn(0)},
	}}
	items := &mockItemRepo{names: map[int64][]string{10: {"Oscilloscope"}}}
	mail := &mockMailer{}

	require.NoError(t, newScanner(res, items, mail).Scan(context.Background()))
	require.Len(t, mail.sent, 3)
	for _, m := range mail.sent {
		require.Equal(t, "Due date notification", m.subject)
	}
}

func TestScan_BodyListsItemNames(t *testing.T) {
	res := &mockResRepo{due: []resrepo.DueRow{
		{ReservationID: 1, ItemID: 10, UserEmail: "sam@example.edu", UserFullName: "Sam Student", EndDateTime: dueIn(2)},
	}}
	items := &mockItemRepo{names: map[int64][]string{10: {"Camera Body", "Tripod", "Charger"}}}
	mail := &mockMailer{}

	require.NoError(t, newScanner(res, items, mail).Scan(context.Background()))
	require.Len(t, mail.sent, 1)
	require.Equal(t, "sam@example.edu", mail.sent[0].to)
	require.Equal(t,
		"Hello Sam Student, we would like to advise you that your items: "+
			"Camera Body, Tripod, Charger will be due 2 day(s) from today.",
		mail.sent[0].body)
}

func TestScan_ContinuesPastFailures(t *testing.T) {
	res := &mockResRepo{due: []resrepo.DueRow{
		{ReservationID: 1, ItemID: 404, UserEmail: "a@example.edu", UserFullName: "Ana A", EndDateTime: dueIn(1)},
		{ReservationID: 2, ItemID: 10, UserEmail: "b@example.edu", UserFullName: "Bo B", EndDateTime: dueIn(1)},
	}}
	items := &mockItemRepo{names: map[int64][]string{10: {"Projector"}}}
	mail := &mockMailer{}

	require.NoError(t, newScanner(res, items, mail).Scan(context.Background()))
	require.Len(t, mail.sent, 1)
	require.Equal(t, "b@example.edu", mail.sent[0].to)
}

func TestScan_MailerFailureDoesNotAbort(t *testing.T) {
	res := &mockResRepo{due: []resrepo.DueRow{
		{ReservationID: 1, ItemID: 10, UserEmail: "a@example.edu", UserFullName: "Ana A", EndDateTime: dueIn(1)},
	}}
	items := &mockItemRepo{names: map[int64][]string{10: {"Projector"}}}
	mail := &mockMailer{err: errors.New("smtp down")}

	require.NoError(t, newScanner(res, items, mail).Scan(context.Background()))
	require.Empty(t, mail.sent)
}

func TestScan_ListFailure(t *testing.T) {
	res := &mockResRepo{err: errors.New("db down")}
	err := newScanner(res, &mockItemRepo{}, &mockMailer{}).Scan(context.Background())
	require.Error(t, err)
}

func TestDaysUntil_IgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	early := time.Date(2026, 3, 12, 0, 1, 0, 0, time.UTC)
	require.Equal(t, 2, daysUntil(late, early))
	require.Equal(t, 0, daysUntil(early, early))
	require.Equal(t, -2, daysUntil(early, late))
}
