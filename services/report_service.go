package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"salonreach-backend/config"
	"salonreach-backend/models"
	"salonreach-backend/repository"
	"salonreach-backend/utils"
)

// OutreachSummary aggregates campaign activity over a window.
type OutreachSummary struct {
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	CallsPlaced   int `json:"calls_placed"`
	CallsAnswered int `json:"calls_answered"`
	Interested    int `json:"interested"`
	Callbacks     int `json:"callbacks"`
	OptOuts       int `json:"opt_outs"`
	FollowUpsOwed int `json:"follow_ups_owed"`
	BookingsMade  int `json:"bookings_made"`

	CallRevenue float64 `json:"call_revenue"`

	AnswerRate     float64 `json:"answer_rate"`
	ConversionRate float64 `json:"conversion_rate"`
}

// ReportService builds daily and weekly outreach summaries and sends
// them to the manager's phone.
type ReportService struct {
	conversations repository.ConversationRepository
	bookings      repository.BookingRepository
	notifier      Notifier

	salonName    string
	managerPhone string
	now          func() time.Time
}

func NewReportService(
	conversations repository.ConversationRepository,
	bookings repository.BookingRepository,
	notifier Notifier,
	cfg config.Config,
) *ReportService {
	return &ReportService{
		conversations: conversations,
		bookings:      bookings,
		notifier:      notifier,
		salonName:     cfg.SalonName,
		managerPhone:  cfg.ManagerPhone,
		now:           time.Now,
	}
}

// Summarize builds the outreach summary for [start, end).
func (s *ReportService) Summarize(ctx context.Context, start, end time.Time) (*OutreachSummary, error) {
	conversations, err := s.conversations.ListBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	bookings, err := s.bookings.ListCreatedBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	summary := &OutreachSummary{PeriodStart: start, PeriodEnd: end}
	for i := range conversations {
		conv := &conversations[i]
		summary.CallsPlaced++
		switch conv.CallStatus {
		case models.CallStatusAnswered, models.CallStatusCompleted:
			summary.CallsAnswered++
		}
		switch conv.CustomerResponse {
		case models.ResponseInterested:
			summary.Interested++
		case models.ResponseCallback:
			summary.Callbacks++
		case models.ResponseRemoveFromList:
			summary.OptOuts++
		}
		if conv.FollowUpRequired {
			summary.FollowUpsOwed++
		}
	}

	for i := range bookings {
		booking := &bookings[i]
		if booking.Status == models.BookingCancelled {
			continue
		}
		if booking.CreatedVia != models.BookingViaVoiceCall && booking.CreatedVia != models.BookingViaSMS {
			continue
		}
		summary.BookingsMade++
		summary.CallRevenue += booking.Price
	}

	if summary.CallsPlaced > 0 {
		summary.AnswerRate = float64(summary.CallsAnswered) / float64(summary.CallsPlaced) * 100
		summary.ConversionRate = float64(summary.BookingsMade) / float64(summary.CallsPlaced) * 100
	}
	return summary, nil
}

// DailySummary covers yesterday's full calendar day.
func (s *ReportService) DailySummary(ctx context.Context) (*OutreachSummary, error) {
	today := utils.BeginningOfDay(s.now())
	return s.Summarize(ctx, today.AddDate(0, 0, -1), today)
}

// WeeklySummary covers the previous seven full days.
func (s *ReportService) WeeklySummary(ctx context.Context) (*OutreachSummary, error) {
	today := utils.BeginningOfDay(s.now())
	return s.Summarize(ctx, today.AddDate(0, 0, -7), today)
}

// SendDailyReport texts yesterday's numbers to the manager.
func (s *ReportService) SendDailyReport(ctx context.Context) error {
	summary, err := s.DailySummary(ctx)
	if err != nil {
		return err
	}
	return s.send(ctx, "Daily", summary)
}

// SendWeeklyReport texts last week's numbers to the manager.
func (s *ReportService) SendWeeklyReport(ctx context.Context) error {
	summary, err := s.WeeklySummary(ctx)
	if err != nil {
		return err
	}
	return s.send(ctx, "Weekly", summary)
}

func (s *ReportService) send(ctx context.Context, label string, summary *OutreachSummary) error {
	if s.managerPhone == "" {
		log.Warn().Msg("manager phone not configured, report not sent")
		return nil
	}

	subject := fmt.Sprintf("%s %s outreach report (%s):", s.salonName, strings.ToLower(label),
		summary.PeriodStart.Format("Jan 2"))

	var b strings.Builder
	fmt.Fprintf(&b, "Calls: %d placed, %d answered (%.0f%%)\n",
		summary.CallsPlaced, summary.CallsAnswered, summary.AnswerRate)
	fmt.Fprintf(&b, "Bookings: %d (%.0f%% conversion), revenue $%.2f\n",
		summary.BookingsMade, summary.ConversionRate, summary.CallRevenue)
	fmt.Fprintf(&b, "Interested: %d, callbacks: %d, opt-outs: %d, follow-ups owed: %d",
		summary.Interested, summary.Callbacks, summary.OptOuts, summary.FollowUpsOwed)

	if err := s.notifier.DeliverReport(ctx, s.managerPhone, subject, b.String()); err != nil {
		return fmt.Errorf("send %s report: %w", strings.ToLower(label), err)
	}

	log.Info().Str("report", label).Msg("outreach report sent")
	return nil
}
