package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"salonreach-backend/models"
)

func TestInferPreferences(t *testing.T) {
	tests := []struct {
		name         string
		notes        string
		wantChanged  bool
		wantTime     string
		wantServices models.StringList
	}{
		{
			name:        "contact time from notes",
			notes:       "Asked us to call back in the evening",
			wantChanged: true,
			wantTime:    models.ContactEvening,
		},
		{
			name:         "service tags merged",
			notes:        "Interested in braids and a trim next month",
			wantChanged:  true,
			wantServices: models.StringList{"braids", "cut"},
		},
		{
			name:         "both hints in one note",
			notes:        "Morning person, wants coloring",
			wantChanged:  true,
			wantTime:     models.ContactMorning,
			wantServices: models.StringList{"color"},
		},
		{
			name:        "first band mentioned wins",
			notes:       "morning or maybe afternoon",
			wantChanged: true,
			wantTime:    models.ContactMorning,
		},
		{
			name:        "no hints",
			notes:       "Call dropped",
			wantChanged: false,
		},
		{
			name:        "empty notes",
			notes:       "",
			wantChanged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customer := &models.Customer{Name: "Pat"}
			changed := InferPreferences(customer, tt.notes)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantTime, customer.PreferredContactTime)
			assert.Equal(t, tt.wantServices, customer.PreferredServices)
		})
	}
}

func TestInferPreferencesDoesNotDuplicateServices(t *testing.T) {
	customer := &models.Customer{
		Name:              "Pat",
		PreferredServices: models.StringList{"braids"},
	}

	changed := InferPreferences(customer, "still loves her braids")
	assert.False(t, changed)
	assert.Equal(t, models.StringList{"braids"}, customer.PreferredServices)
}
