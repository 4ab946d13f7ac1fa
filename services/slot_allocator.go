package services

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"salonreach-backend/config"
)

// TimeSlot is a candidate appointment window. Ephemeral: slots are
// computed on demand and never persisted.
type TimeSlot struct {
	StartTime       time.Time
	DurationMinutes int
	StylistID       string
}

// EndTime is the exclusive end of the slot.
func (s TimeSlot) EndTime() time.Time {
	return s.StartTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// BookedInterval is an occupied window reported by the appointment
// backend.
type BookedInterval struct {
	Start           time.Time
	DurationMinutes int
	StylistID       string
}

func (b BookedInterval) end() time.Time {
	return b.Start.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// SlotAllocator generates candidate appointment windows and screens
// them against existing bookings.
type SlotAllocator struct {
	backend AppointmentBackend

	openHour    int
	closeHour   int
	stepMinutes int
}

func NewSlotAllocator(backend AppointmentBackend, cfg config.Config) *SlotAllocator {
	return &SlotAllocator{
		backend:     backend,
		openHour:    cfg.BusinessHoursStart,
		closeHour:   cfg.BusinessHoursEnd,
		stepMinutes: cfg.SlotStepMinutes,
	}
}

// GenerateCandidates walks each business day in [start, end], stepping
// through the open hours in fixed increments. A slot is emitted only
// when it fits entirely before closing time and starts within
// [start, end]. Weekends are skipped.
func (a *SlotAllocator) GenerateCandidates(durationMinutes int, start, end time.Time) []TimeSlot {
	var slots []TimeSlot
	duration := time.Duration(durationMinutes) * time.Minute
	step := time.Duration(a.stepMinutes) * time.Minute

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	lastDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())

	for !day.After(lastDay) {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, 1)
			continue
		}

		open := day.Add(time.Duration(a.openHour) * time.Hour)
		close := day.Add(time.Duration(a.closeHour) * time.Hour)

		for t := open; !t.Add(duration).After(close); t = t.Add(step) {
			if t.Before(start) {
				continue
			}
			if t.After(end) {
				break
			}
			slots = append(slots, TimeSlot{StartTime: t, DurationMinutes: durationMinutes})
		}
		day = day.AddDate(0, 0, 1)
	}
	return slots
}

// HasConflict reports whether the slot's interval overlaps any booked
// interval. With a stylist requested, only that stylist's bookings
// count; without one the salon is treated as a single shared resource
// and any overlap conflicts.
func (a *SlotAllocator) HasConflict(slot TimeSlot, existing []BookedInterval, stylistID string) bool {
	for _, booked := range existing {
		if slot.StartTime.Before(booked.end()) && slot.EndTime().After(booked.Start) {
			if stylistID == "" || booked.StylistID == stylistID {
				return true
			}
		}
	}
	return false
}

// AvailableSlots queries the backend for occupied intervals and
// returns the non-conflicting candidates in chronological order.
func (a *SlotAllocator) AvailableSlots(
	ctx context.Context,
	durationMinutes int,
	start, end time.Time,
	stylistID string,
) ([]TimeSlot, error) {
	existing, err := a.backend.QueryBookings(ctx, start, end)
	if err != nil {
		return nil, err
	}

	var available []TimeSlot
	for _, slot := range a.GenerateCandidates(durationMinutes, start, end) {
		if !a.HasConflict(slot, existing, stylistID) {
			slot.StylistID = stylistID
			available = append(available, slot)
		}
	}

	log.Debug().
		Int("candidates", len(available)).
		Time("from", start).
		Time("to", end).
		Msg("computed available slots")
	return available, nil
}

// NextAvailable returns the first count open slots starting now.
func (a *SlotAllocator) NextAvailable(
	ctx context.Context,
	durationMinutes, count, daysAhead int,
	now time.Time,
) ([]TimeSlot, error) {
	slots, err := a.AvailableSlots(ctx, durationMinutes, now, now.AddDate(0, 0, daysAhead), "")
	if err != nil {
		return nil, err
	}
	if len(slots) > count {
		slots = slots[:count]
	}
	return slots, nil
}

// SuggestAlternatives searches a window around the preferred time and
// returns up to five open slots ordered by distance to it.
func (a *SlotAllocator) SuggestAlternatives(
	ctx context.Context,
	preferred time.Time,
	durationMinutes, windowHours int,
) ([]TimeSlot, error) {
	window := time.Duration(windowHours) * time.Hour
	slots, err := a.AvailableSlots(ctx, durationMinutes, preferred.Add(-window), preferred.Add(window), "")
	if err != nil {
		return nil, err
	}

	sort.SliceStable(slots, func(i, j int) bool {
		di := absDuration(slots[i].StartTime.Sub(preferred))
		dj := absDuration(slots[j].StartTime.Sub(preferred))
		return di < dj
	})

	if len(slots) > 5 {
		slots = slots[:5]
	}
	return slots, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
