package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonreach-backend/config"
)

func TestNextFire(t *testing.T) {
	// Monday 2025-06-16.
	monday := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		schedule config.JobSchedule
		after    time.Time
		want     time.Time
	}{
		{
			name:     "same day later hour",
			schedule: config.JobSchedule{Name: "daily_report", Hours: []int{8}},
			after:    monday.Add(6 * time.Hour),
			want:     monday.Add(8 * time.Hour),
		},
		{
			name:     "past today's hour rolls to tomorrow",
			schedule: config.JobSchedule{Name: "daily_report", Hours: []int{8}},
			after:    monday.Add(9 * time.Hour),
			want:     monday.AddDate(0, 0, 1).Add(8 * time.Hour),
		},
		{
			name:     "exact fire time rolls forward",
			schedule: config.JobSchedule{Name: "daily_report", Hours: []int{8}},
			after:    monday.Add(8 * time.Hour),
			want:     monday.AddDate(0, 0, 1).Add(8 * time.Hour),
		},
		{
			name:     "picks next hour in multi-hour band",
			schedule: config.JobSchedule{Name: "reminders", Hours: []int{9, 12, 15}},
			after:    monday.Add(10 * time.Hour),
			want:     monday.Add(12 * time.Hour),
		},
		{
			name:     "minute offset within the hour",
			schedule: config.JobSchedule{Name: "follow_ups", Hours: []int{9, 11}, Minute: 30},
			after:    monday.Add(9*time.Hour + 45*time.Minute),
			want:     monday.Add(11*time.Hour + 30*time.Minute),
		},
		{
			name: "weekday restriction skips to monday",
			schedule: config.JobSchedule{
				Name:     "campaigns",
				Hours:    []int{10},
				Weekdays: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
			},
			// Friday 2025-06-20 after the 10:00 run.
			after: time.Date(2025, 6, 20, 11, 0, 0, 0, time.UTC),
			want:  time.Date(2025, 6, 23, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "weekly monday job from midweek",
			schedule: config.JobSchedule{
				Name:     "weekly_report",
				Hours:    []int{9},
				Weekdays: []time.Weekday{time.Monday},
			},
			after: monday.Add(10 * time.Hour),
			want:  monday.AddDate(0, 0, 7).Add(9 * time.Hour),
		},
		{
			name:     "unsorted hours still fire in order",
			schedule: config.JobSchedule{Name: "campaigns", Hours: []int{14, 10}},
			after:    monday.Add(9 * time.Hour),
			want:     monday.Add(10 * time.Hour),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextFire(tt.schedule, tt.after)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextFireAgreesWithDefaultSchedule(t *testing.T) {
	// Every entry in the default table must produce a future fire time.
	after := time.Date(2025, 6, 16, 12, 34, 0, 0, time.UTC)
	for _, schedule := range config.DefaultSchedule().Jobs {
		fire := NextFire(schedule, after)
		assert.True(t, fire.After(after), "job %s fired in the past", schedule.Name)
		assert.True(t, fire.Sub(after) <= 7*24*time.Hour, "job %s fired more than a week out", schedule.Name)
	}
}

func TestSchedulerRegisterTableSkipsUnknownJobs(t *testing.T) {
	scheduler := NewScheduler()
	table := config.ScheduleTable{Jobs: []config.JobSchedule{
		{Name: "known", Hours: []int{8}},
		{Name: "unknown", Hours: []int{9}},
	}}

	scheduler.RegisterTable(table, map[string]JobFunc{
		"known": func(ctx context.Context) error { return nil },
	})

	assert.Len(t, scheduler.jobs, 1)
	assert.Contains(t, scheduler.jobs, "known")
}

func TestSchedulerStartStop(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.Register(config.JobSchedule{Name: "noop", Hours: []int{3}},
		func(ctx context.Context) error { return nil })

	require.NoError(t, scheduler.Start(context.Background()))
	assert.Error(t, scheduler.Start(context.Background()), "double start must fail")

	done := make(chan struct{})
	go func() {
		scheduler.Stop(5 * time.Second)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop promptly")
	}
}
