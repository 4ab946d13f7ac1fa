package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonreach-backend/config"
)

func testAllocatorConfig() config.Config {
	return config.Config{
		BusinessHoursStart: 9,
		BusinessHoursEnd:   18,
		SlotStepMinutes:    30,
	}
}

// A Monday.
var testDay = time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

func TestGenerateCandidatesStepsThroughBusinessHours(t *testing.T) {
	allocator := NewSlotAllocator(&fakeBackend{}, testAllocatorConfig())

	slots := allocator.GenerateCandidates(60, testDay, testDay.AddDate(0, 0, 1))

	require.NotEmpty(t, slots)
	assert.Equal(t, testDay.Add(9*time.Hour), slots[0].StartTime)
	// The last 60-minute slot must still end by 18:00.
	last := slots[len(slots)-1]
	assert.Equal(t, testDay.Add(17*time.Hour), last.StartTime)
	// 09:00 through 17:00 inclusive at 30-minute steps.
	assert.Len(t, slots, 17)
}

func TestGenerateCandidatesSkipsWeekends(t *testing.T) {
	allocator := NewSlotAllocator(&fakeBackend{}, testAllocatorConfig())

	saturday := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	slots := allocator.GenerateCandidates(30, saturday, saturday.AddDate(0, 0, 2))
	assert.Empty(t, slots)

	// Extend through Monday and slots appear again.
	slots = allocator.GenerateCandidates(30, saturday, saturday.AddDate(0, 0, 3))
	require.NotEmpty(t, slots)
	assert.Equal(t, time.Monday, slots[0].StartTime.Weekday())
}

func TestGenerateCandidatesSlotMustFitBeforeClose(t *testing.T) {
	allocator := NewSlotAllocator(&fakeBackend{}, testAllocatorConfig())

	slots := allocator.GenerateCandidates(120, testDay, testDay.AddDate(0, 0, 1))
	require.NotEmpty(t, slots)
	for _, slot := range slots {
		assert.False(t, slot.EndTime().After(testDay.Add(18*time.Hour)),
			"slot %v runs past closing", slot.StartTime)
	}
}

func TestHasConflictSingleResourceFallback(t *testing.T) {
	allocator := NewSlotAllocator(&fakeBackend{}, testAllocatorConfig())

	// One confirmed booking 09:15 to 10:15 with no stylist attached.
	existing := []BookedInterval{{
		Start:           testDay.Add(9*time.Hour + 15*time.Minute),
		DurationMinutes: 60,
	}}

	nineOClock := TimeSlot{StartTime: testDay.Add(9 * time.Hour), DurationMinutes: 30}
	nineThirty := TimeSlot{StartTime: testDay.Add(9*time.Hour + 30*time.Minute), DurationMinutes: 30}
	tenThirty := TimeSlot{StartTime: testDay.Add(10*time.Hour + 30*time.Minute), DurationMinutes: 30}

	assert.True(t, allocator.HasConflict(nineOClock, existing, ""))
	assert.True(t, allocator.HasConflict(nineThirty, existing, ""))
	assert.False(t, allocator.HasConflict(tenThirty, existing, ""))
}

func TestHasConflictStylistScoping(t *testing.T) {
	allocator := NewSlotAllocator(&fakeBackend{}, testAllocatorConfig())

	existing := []BookedInterval{{
		Start:           testDay.Add(10 * time.Hour),
		DurationMinutes: 60,
		StylistID:       "stylist-a",
	}}
	slot := TimeSlot{StartTime: testDay.Add(10 * time.Hour), DurationMinutes: 30}

	assert.True(t, allocator.HasConflict(slot, existing, "stylist-a"))
	assert.False(t, allocator.HasConflict(slot, existing, "stylist-b"))
	// No stylist requested: any overlap conflicts.
	assert.True(t, allocator.HasConflict(slot, existing, ""))
}

func TestHasConflictBackToBackIsAllowed(t *testing.T) {
	allocator := NewSlotAllocator(&fakeBackend{}, testAllocatorConfig())

	existing := []BookedInterval{{
		Start:           testDay.Add(10 * time.Hour),
		DurationMinutes: 60,
	}}
	// Ends exactly when the booking starts, and starts exactly when it ends.
	before := TimeSlot{StartTime: testDay.Add(9*time.Hour + 30*time.Minute), DurationMinutes: 30}
	after := TimeSlot{StartTime: testDay.Add(11 * time.Hour), DurationMinutes: 30}

	assert.False(t, allocator.HasConflict(before, existing, ""))
	assert.False(t, allocator.HasConflict(after, existing, ""))
}

func TestAvailableSlotsFiltersConflicts(t *testing.T) {
	backend := &fakeBackend{intervals: []BookedInterval{{
		Start:           testDay.Add(9*time.Hour + 15*time.Minute),
		DurationMinutes: 60,
	}}}
	allocator := NewSlotAllocator(backend, testAllocatorConfig())

	slots, err := allocator.AvailableSlots(context.Background(), 30, testDay, testDay.AddDate(0, 0, 1), "")
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	for _, slot := range slots {
		assert.False(t, slot.StartTime.Equal(testDay.Add(9*time.Hour)))
		assert.False(t, slot.StartTime.Equal(testDay.Add(9*time.Hour+30*time.Minute)))
	}
	// The 10:00 candidate still overlaps the booking tail, so the
	// first open slot is 10:30.
	assert.Equal(t, testDay.Add(10*time.Hour+30*time.Minute), slots[0].StartTime)
}

func TestSuggestAlternativesOrdersByDistance(t *testing.T) {
	backend := &fakeBackend{}
	allocator := NewSlotAllocator(backend, testAllocatorConfig())

	preferred := testDay.Add(12 * time.Hour)
	slots, err := allocator.SuggestAlternatives(context.Background(), preferred, 30, 3)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	assert.LessOrEqual(t, len(slots), 5)

	for i := 1; i < len(slots); i++ {
		di := absDuration(slots[i-1].StartTime.Sub(preferred))
		dj := absDuration(slots[i].StartTime.Sub(preferred))
		assert.LessOrEqual(t, di, dj)
	}
}

func TestNextAvailableLimitsCount(t *testing.T) {
	allocator := NewSlotAllocator(&fakeBackend{}, testAllocatorConfig())

	slots, err := allocator.NextAvailable(context.Background(), 60, 3, 7, testDay)
	require.NoError(t, err)
	assert.Len(t, slots, 3)
}
