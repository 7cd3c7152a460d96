package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"labreserve/model"
)

func TestBuild(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	res := &model.ReservationView{
		ID:            12,
		Item:          &model.ItemDetail{ID: 7, Name: "Oscilloscope"},
		StartDateTime: start,
		EndDateTime:   start.Add(72 * time.Hour),
		Status:        model.StatusApproved,
	}

	blob, err := New().Build(res)
	require.NoError(t, err)

	out := string(blob)
	require.Contains(t, out, "BEGIN:VCALENDAR")
	require.Contains(t, out, "BEGIN:VEVENT")
	require.Contains(t, out, "Oscilloscope")
	require.Contains(t, out, "reservation-12")
	require.Contains(t, out, "END:VCALENDAR")
}

func TestBuildRequiresItem(t *testing.T) {
	_, err := New().Build(&model.ReservationView{ID: 1})
	require.Error(t, err)
}
