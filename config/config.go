package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime settings. It is loaded once in main and
// passed into each component at construction time.
type Config struct {
	Port  string
	DBURL string

	RedisAddr     string
	RedisPassword string

	// Twilio
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	WebhookBaseURL    string

	// Appointment backend
	BookingAPIURL   string
	BookingAPIToken string

	// Salon identity used in call scripts and messages
	SalonName    string
	SalonPhone   string
	SalonAddress string

	// Business hours (24h clock)
	BusinessHoursStart int
	BusinessHoursEnd   int

	// Campaign limits
	MaxCallsPerDay       int
	SessionCallLimit     int
	ContactCooldownDays  int
	DispatchDelaySeconds int

	// Quiet hours (do-not-disturb band, may wrap midnight)
	RespectQuietHours bool
	QuietStartHour    int
	QuietEndHour      int

	// Segmentation thresholds
	VIPVisitCount     int
	RegularVisitCount int
	LapsedDays        int
	PriceSensitiveAvg float64

	// Slot allocation
	SlotStepMinutes       int
	DefaultServiceMinutes int
	BookingSearchDays     int

	// Compliance
	OptOutKeywords    []string
	DataRetentionDays int

	ManagerPhone string

	// Optional yaml override for the job timetable
	ScheduleFile string

	// Development switches
	MockCalls bool
	MockSMS   bool
}

// Load builds a Config from environment variables, applying defaults
// for everything that is not security sensitive.
func Load() Config {
	return Config{
		Port:  envStr("PORT", "8080"),
		DBURL: os.Getenv("DB_URL"),

		RedisAddr:     envStr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		TwilioAccountSID:  os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber: os.Getenv("TWILIO_PHONE_NUMBER"),
		WebhookBaseURL:    envStr("WEBHOOK_BASE_URL", "http://localhost:8080"),

		BookingAPIURL:   os.Getenv("BOOKING_API_URL"),
		BookingAPIToken: os.Getenv("BOOKING_API_TOKEN"),

		SalonName:    envStr("SALON_NAME", "GetTwisted Hair Studios"),
		SalonPhone:   os.Getenv("SALON_PHONE"),
		SalonAddress: os.Getenv("SALON_ADDRESS"),

		BusinessHoursStart: envInt("BUSINESS_HOURS_START", 9),
		BusinessHoursEnd:   envInt("BUSINESS_HOURS_END", 18),

		MaxCallsPerDay:       envInt("MAX_CALLS_PER_DAY", 50),
		SessionCallLimit:     envInt("SESSION_CALL_LIMIT", 10),
		ContactCooldownDays:  envInt("CONTACT_COOLDOWN_DAYS", 14),
		DispatchDelaySeconds: envInt("DISPATCH_DELAY_SECONDS", 30),

		RespectQuietHours: envBool("RESPECT_QUIET_HOURS", true),
		QuietStartHour:    envInt("QUIET_START_HOUR", 20),
		QuietEndHour:      envInt("QUIET_END_HOUR", 9),

		VIPVisitCount:     envInt("VIP_VISIT_COUNT", 20),
		RegularVisitCount: envInt("REGULAR_VISIT_COUNT", 5),
		LapsedDays:        envInt("LAPSED_DAYS", 90),
		PriceSensitiveAvg: envFloat("PRICE_SENSITIVE_AVG", 50),

		SlotStepMinutes:       envInt("SLOT_STEP_MINUTES", 30),
		DefaultServiceMinutes: envInt("DEFAULT_SERVICE_MINUTES", 60),
		BookingSearchDays:     envInt("BOOKING_SEARCH_DAYS", 14),

		OptOutKeywords:    envList("OPT_OUT_KEYWORDS", "STOP,UNSUBSCRIBE,REMOVE,QUIT"),
		DataRetentionDays: envInt("DATA_RETENTION_DAYS", 365),

		ManagerPhone: os.Getenv("MANAGER_PHONE"),

		ScheduleFile: os.Getenv("SCHEDULE_FILE"),

		MockCalls: envBool("MOCK_CALLS", true),
		MockSMS:   envBool("MOCK_SMS", true),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envList(key, fallback string) []string {
	raw := envStr(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
