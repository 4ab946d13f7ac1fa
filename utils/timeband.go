// utils/timeband.go
package utils

// HourBand maps an hour of day onto the contact-time bands customers
// can express a preference for.
func HourBand(hour int) string {
	switch {
	case hour >= 9 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 20:
		return "evening"
	default:
		return ""
	}
}
