package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// JobSchedule declares when a recurring job fires. Hours lists the
// hours of day the job runs at; Weekdays restricts which days (empty
// means every day). Minute is the minute within each listed hour.
type JobSchedule struct {
	Name     string         `yaml:"name"`
	Hours    []int          `yaml:"hours"`
	Minute   int            `yaml:"minute"`
	Weekdays []time.Weekday `yaml:"weekdays"`
}

// ScheduleTable is the full declarative schedule for the service.
type ScheduleTable struct {
	Jobs []JobSchedule `yaml:"jobs"`
}

// DefaultSchedule mirrors the production timetable: reports in the
// morning, reminders hourly through the day, follow-ups every other
// hour, campaign waves mid-morning and mid-afternoon on weekdays,
// cleanup at midnight.
func DefaultSchedule() ScheduleTable {
	weekdays := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
	}
	return ScheduleTable{Jobs: []JobSchedule{
		{Name: "daily_report", Hours: []int{8}},
		{Name: "weekly_report", Hours: []int{9}, Weekdays: []time.Weekday{time.Monday}},
		{Name: "appointment_reminders", Hours: hourRange(9, 18)},
		{Name: "follow_up_calls", Hours: []int{9, 11, 13, 15, 17}, Minute: 30},
		{Name: "promotional_campaigns", Hours: []int{10, 14}, Weekdays: weekdays},
		{Name: "retention_cleanup", Hours: []int{0}},
	}}
}

// LoadSchedule reads a yaml schedule file, falling back to the
// default table when the path is empty or the file does not exist.
func LoadSchedule(path string) (ScheduleTable, error) {
	if path == "" {
		return DefaultSchedule(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSchedule(), nil
		}
		return ScheduleTable{}, fmt.Errorf("read schedule file: %w", err)
	}
	var table ScheduleTable
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return ScheduleTable{}, fmt.Errorf("parse schedule file: %w", err)
	}
	for _, job := range table.Jobs {
		if job.Name == "" || len(job.Hours) == 0 {
			return ScheduleTable{}, fmt.Errorf("schedule entry missing name or hours")
		}
		for _, h := range job.Hours {
			if h < 0 || h > 23 {
				return ScheduleTable{}, fmt.Errorf("job %s: hour %d out of range", job.Name, h)
			}
		}
	}
	return table, nil
}

func hourRange(from, to int) []int {
	hours := make([]int, 0, to-from+1)
	for h := from; h <= to; h++ {
		hours = append(hours, h)
	}
	return hours
}
