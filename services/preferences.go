package services

import (
	"strings"

	"salonreach-backend/models"
)

// Keyword tags scanned out of free-text customer notes. The first
// word that matches maps the note onto the canonical service tag.
var serviceKeywords = []struct {
	tag   string
	words []string
}{
	{"braids", []string{"braids", "braid"}},
	{"color", []string{"color", "coloring"}},
	{"cut", []string{"cut", "trim"}},
	{"styling", []string{"style", "styling"}},
}

// InferPreferences scans free text a customer gave us (call notes,
// inbound texts) for contact-time and service hints and merges them
// into the customer's stated preferences. Reports whether anything
// changed so the caller knows to persist the customer.
func InferPreferences(customer *models.Customer, notes string) bool {
	if notes == "" {
		return false
	}
	lower := strings.ToLower(notes)
	changed := false

	for _, band := range []string{models.ContactMorning, models.ContactAfternoon, models.ContactEvening} {
		if strings.Contains(lower, band) {
			if customer.PreferredContactTime != band {
				customer.PreferredContactTime = band
				changed = true
			}
			break
		}
	}

	for _, kw := range serviceKeywords {
		for _, word := range kw.words {
			if !strings.Contains(lower, word) {
				continue
			}
			if !customer.PreferredServices.Contains(kw.tag) {
				customer.PreferredServices = append(customer.PreferredServices, kw.tag)
				changed = true
			}
			break
		}
	}

	return changed
}
