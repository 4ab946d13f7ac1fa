package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/twilio/twilio-go/twiml"

	"salonreach-backend/config"
	"salonreach-backend/models"
	"salonreach-backend/utils"
)

const (
	sayVoice    = "alice"
	sayLanguage = "en-US"
)

// ScriptBuilder renders the voice scripts and message bodies used on
// the outbound channel.
type ScriptBuilder struct {
	salonName    string
	salonPhone   string
	salonAddress string
	hoursStart   int
	hoursEnd     int
}

func NewScriptBuilder(cfg config.Config) *ScriptBuilder {
	return &ScriptBuilder{
		salonName:    cfg.SalonName,
		salonPhone:   cfg.SalonPhone,
		salonAddress: cfg.SalonAddress,
		hoursStart:   cfg.BusinessHoursStart,
		hoursEnd:     cfg.BusinessHoursEnd,
	}
}

// PromotionalCallTwiML builds the IVR document for a promotional
// call: greeting, the offer, then a one-digit gather.
func (s *ScriptBuilder) PromotionalCallTwiML(
	customer *models.Customer,
	promotion *models.Promotion,
	gatherAction string,
	now time.Time,
) (string, error) {
	gather := &twiml.VoiceGather{
		NumDigits: "1",
		Timeout:   "10",
		Action:    gatherAction,
		Method:    "POST",
		InnerElements: []twiml.Element{
			&twiml.VoiceSay{
				Message: "To book an appointment now, press 1. " +
					"To hear more details about this offer, press 2. " +
					"To request a callback, press 3. " +
					"To be removed from our call list, press 9.",
				Voice:    sayVoice,
				Language: sayLanguage,
			},
		},
	}

	elements := []twiml.Element{
		&twiml.VoiceSay{
			Message:  s.Greeting(customer, promotion, now),
			Voice:    sayVoice,
			Language: sayLanguage,
		},
		&twiml.VoicePause{Length: "2"},
		gather,
		&twiml.VoiceSay{
			Message: "I didn't receive a response. I'll send you a text message with the details. " +
				"Have a wonderful day!",
			Voice:    sayVoice,
			Language: sayLanguage,
		},
		&twiml.VoiceHangup{},
	}

	return twiml.Voice(elements)
}

// ResponseTwiML answers the gather callback for the digit pressed.
func (s *ScriptBuilder) ResponseTwiML(digit string) (string, error) {
	var elements []twiml.Element

	say := func(message string) {
		elements = append(elements, &twiml.VoiceSay{
			Message:  message,
			Voice:    sayVoice,
			Language: sayLanguage,
		})
	}
	dialSalon := func() {
		elements = append(elements, &twiml.VoiceDial{
			InnerElements: []twiml.Element{
				&twiml.VoiceNumber{PhoneNumber: s.salonPhone},
			},
		})
	}

	switch digit {
	case "1":
		say("Great! We'll find you the next open appointment and text you the confirmation.")
		elements = append(elements, &twiml.VoiceHangup{})
	case "2":
		say("I'll send you a text message with all the details about this promotion. " +
			"You can also call us directly to book. Thank you for your time!")
		elements = append(elements, &twiml.VoiceHangup{})
	case "3":
		say("I'll connect you with one of our team members. Please hold.")
		dialSalon()
	case "9":
		say("I understand. You've been removed from our call list. " +
			"You can still visit us anytime or call us directly. Have a great day!")
		elements = append(elements, &twiml.VoiceHangup{})
	default:
		say("I didn't understand that selection. I'll send you a text with the promotion details. " +
			"Feel free to call us directly if you're interested. Thank you!")
		elements = append(elements, &twiml.VoiceHangup{})
	}

	return twiml.Voice(elements)
}

// Greeting builds the personalized opening line.
func (s *ScriptBuilder) Greeting(customer *models.Customer, promotion *models.Promotion, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s, this is %s calling. ", firstName(customer), s.salonName)

	if customer.LastVisit != nil {
		daysSince := utils.DaysBetween(*customer.LastVisit, now)
		if daysSince > 60 {
			b.WriteString("We miss seeing you! ")
		} else if daysSince > 30 {
			b.WriteString("It's been a while since your last visit. ")
		}
	} else {
		b.WriteString("We'd love to welcome you to our salon. ")
	}

	switch {
	case promotion.DiscountPercentage != nil:
		fmt.Fprintf(&b, "I'm calling to let you know about our special %.0f%% off promotion", *promotion.DiscountPercentage)
	case promotion.DiscountAmount != nil:
		fmt.Fprintf(&b, "I'm calling to let you know about our special $%.0f off promotion", *promotion.DiscountAmount)
	default:
		b.WriteString("I'm calling to let you know about our special promotion")
	}
	fmt.Fprintf(&b, " - %s. ", promotion.Name)

	if days := int(promotion.EndDate.Sub(now).Hours() / 24); days >= 0 && days <= 7 {
		fmt.Fprintf(&b, "This offer ends in %d days, so don't miss out! ", days)
	}

	return b.String()
}

// PromotionalSMS builds the offer text for the messaging channel.
func (s *ScriptBuilder) PromotionalSMS(customer *models.Customer, promotion *models.Promotion, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s! %s here. ", firstName(customer), s.salonName)

	switch {
	case promotion.DiscountPercentage != nil:
		fmt.Fprintf(&b, "Special offer: %.0f%% off %s. ", *promotion.DiscountPercentage, promotion.Name)
	case promotion.DiscountAmount != nil:
		fmt.Fprintf(&b, "Special offer: $%.0f off %s. ", *promotion.DiscountAmount, promotion.Name)
	default:
		fmt.Fprintf(&b, "Special offer: %s. ", promotion.Name)
	}

	if promotion.Description != "" {
		b.WriteString(promotion.Description + " ")
	}
	if days := int(promotion.EndDate.Sub(now).Hours() / 24); days >= 0 && days <= 7 {
		fmt.Fprintf(&b, "Ends in %d days! ", days)
	}
	fmt.Fprintf(&b, "Book now: %s Reply STOP to opt out.", s.salonPhone)
	return b.String()
}

// BookingConfirmationSMS confirms a freshly created appointment.
func (s *ScriptBuilder) BookingConfirmationSMS(customer *models.Customer, booking *models.Booking) string {
	return fmt.Sprintf(
		"Hi %s! Your %s appointment at %s is confirmed for %s. Address: %s. Questions? Call %s.",
		firstName(customer), booking.ServiceName, s.salonName,
		booking.StartTime.Format("Monday, January 2 at 3:04 PM"),
		s.salonAddress, s.salonPhone,
	)
}

// CancellationSMS notifies the customer their booking was cancelled.
func (s *ScriptBuilder) CancellationSMS(customer *models.Customer, booking *models.Booking) string {
	return fmt.Sprintf(
		"Hi %s, your %s appointment on %s has been cancelled. To reschedule, please call %s.",
		firstName(customer), booking.ServiceName,
		booking.StartTime.Format("Monday, January 2 at 3:04 PM"),
		s.salonPhone,
	)
}

// ReminderSMS nudges the customer about an upcoming appointment.
func (s *ScriptBuilder) ReminderSMS(customer *models.Customer, booking *models.Booking) string {
	return fmt.Sprintf(
		"Hi %s! Reminder: You have a %s appointment at %s on %s. Questions? Call %s. Address: %s",
		firstName(customer), booking.ServiceName, s.salonName,
		booking.StartTime.Format("Monday, January 2 at 3:04 PM"),
		s.salonPhone, s.salonAddress,
	)
}

// OptOutConfirmationSMS acknowledges a messaging opt-out.
func (s *ScriptBuilder) OptOutConfirmationSMS() string {
	return fmt.Sprintf(
		"You've been removed from %s text messages. You can still call us at %s anytime.",
		s.salonName, s.salonPhone,
	)
}

// InboundSMSReply answers a free-text inbound message by intent.
func (s *ScriptBuilder) InboundSMSReply(body string) string {
	lower := strings.ToLower(strings.TrimSpace(body))

	for _, word := range []string{"book", "appointment", "schedule"} {
		if strings.Contains(lower, word) {
			return fmt.Sprintf(
				"Great! Please call %s to book your appointment, or visit us at %s. Our hours are %02d:00-%02d:00.",
				s.salonPhone, s.salonAddress, s.hoursStart, s.hoursEnd,
			)
		}
	}
	for _, word := range []string{"?", "question", "info", "details"} {
		if strings.Contains(lower, word) {
			return fmt.Sprintf(
				"Thanks for your message! For questions about services or promotions, please call %s and our team will be happy to help!",
				s.salonPhone,
			)
		}
	}
	return fmt.Sprintf("Thanks for contacting %s! For immediate assistance, please call %s.", s.salonName, s.salonPhone)
}

// MessageReplyTwiML wraps a reply body in a messaging response
// document.
func MessageReplyTwiML(body string) (string, error) {
	return twiml.Messages([]twiml.Element{
		&twiml.MessagingMessage{Body: body},
	})
}

// IsOptOutMessage reports whether an inbound text is an opt-out
// request under the configured keyword list.
func IsOptOutMessage(body string, keywords []string) bool {
	lower := strings.ToLower(strings.TrimSpace(body))
	for _, keyword := range keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

func firstName(customer *models.Customer) string {
	if i := strings.IndexByte(customer.Name, ' '); i > 0 {
		return customer.Name[:i]
	}
	if customer.Name != "" {
		return customer.Name
	}
	return "valued customer"
}
