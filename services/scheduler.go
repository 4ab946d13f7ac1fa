package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"salonreach-backend/config"
)

// JobFunc is a scheduled unit of work. Failures are logged and the
// next fire is still scheduled.
type JobFunc func(ctx context.Context) error

type scheduledJob struct {
	schedule config.JobSchedule
	run      JobFunc
}

// Scheduler fires registered jobs according to a declarative
// timetable. Each job is single flight: a tick that arrives while the
// previous run is still going is skipped, not queued.
type Scheduler struct {
	mu   sync.Mutex
	jobs map[string]*scheduledJob

	inFlight map[string]bool
	wg       sync.WaitGroup

	cancel  context.CancelFunc
	done    chan struct{}
	started bool

	now func() time.Time
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		jobs:     make(map[string]*scheduledJob),
		inFlight: make(map[string]bool),
		now:      time.Now,
	}
}

// Register binds a job function to a schedule entry by name. Entries
// without a registered function are reported at start.
func (s *Scheduler) Register(schedule config.JobSchedule, run JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[schedule.Name] = &scheduledJob{schedule: schedule, run: run}
}

// RegisterTable binds a whole schedule table against a name-to-func
// map; table entries with no function are logged and skipped.
func (s *Scheduler) RegisterTable(table config.ScheduleTable, funcs map[string]JobFunc) {
	for _, schedule := range table.Jobs {
		run, ok := funcs[schedule.Name]
		if !ok {
			log.Warn().Str("job", schedule.Name).Msg("schedule entry has no registered handler")
			continue
		}
		s.Register(schedule, run)
	}
}

// NextFire computes the earliest time strictly after `after` at which
// the schedule entry fires.
func NextFire(schedule config.JobSchedule, after time.Time) time.Time {
	hours := append([]int(nil), schedule.Hours...)
	sort.Ints(hours)

	// Scan day by day; a valid weekday always occurs within a week.
	for day := 0; day <= 7; day++ {
		date := after.AddDate(0, 0, day)
		if !weekdayAllowed(schedule, date.Weekday()) {
			continue
		}
		for _, hour := range hours {
			fire := time.Date(date.Year(), date.Month(), date.Day(),
				hour, schedule.Minute, 0, 0, after.Location())
			if fire.After(after) {
				return fire
			}
		}
	}
	// Unreachable with a validated schedule.
	return after.Add(24 * time.Hour)
}

func weekdayAllowed(schedule config.JobSchedule, day time.Weekday) bool {
	if len(schedule.Weekdays) == 0 {
		return true
	}
	for _, allowed := range schedule.Weekdays {
		if allowed == day {
			return true
		}
	}
	return false
}

// Start launches one timer goroutine per registered job.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	for name, job := range s.jobs {
		s.wg.Add(1)
		go s.runLoop(ctx, name, job)
	}

	go func() {
		s.wg.Wait()
		close(s.done)
	}()

	log.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
	return nil
}

func (s *Scheduler) runLoop(ctx context.Context, name string, job *scheduledJob) {
	defer s.wg.Done()

	for {
		fire := NextFire(job.schedule, s.now())
		timer := time.NewTimer(time.Until(fire))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if !s.tryAcquire(name) {
			log.Warn().Str("job", name).Msg("previous run still in progress, tick skipped")
			continue
		}

		started := s.now()
		log.Info().Str("job", name).Msg("job started")
		if err := job.run(ctx); err != nil {
			log.Error().Err(err).Str("job", name).Msg("job failed")
		} else {
			log.Info().Str("job", name).
				Dur("took", s.now().Sub(started)).
				Msg("job finished")
		}
		s.release(name)
	}
}

func (s *Scheduler) tryAcquire(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[name] {
		return false
	}
	s.inFlight[name] = true
	return true
}

func (s *Scheduler) release(name string) {
	s.mu.Lock()
	delete(s.inFlight, name)
	s.mu.Unlock()
}

// Stop cancels the timers and waits for in-flight runs to finish, up
// to the given grace period.
func (s *Scheduler) Stop(grace time.Duration) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	select {
	case <-done:
		log.Info().Msg("scheduler stopped")
	case <-time.After(grace):
		log.Warn().Msg("scheduler stop timed out with jobs still running")
	}
}
