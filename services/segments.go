package services

import (
	"time"

	"salonreach-backend/config"
	"salonreach-backend/models"
)

// Customer segments. A customer may belong to several at once.
const (
	SegmentNew             = "new_customer"
	SegmentRegular         = "regular_customer"
	SegmentVIP             = "vip_customer"
	SegmentLapsed          = "lapsed_customer"
	SegmentPriceSensitive  = "price_sensitive"
	SegmentServiceSpecific = "service_specific"
)

// SegmentThresholds holds the cutoffs the classifier works from.
type SegmentThresholds struct {
	VIPVisits         int
	RegularVisits     int
	LapsedDays        int
	PriceSensitiveAvg float64
}

// ThresholdsFromConfig extracts the segmentation cutoffs.
func ThresholdsFromConfig(cfg config.Config) SegmentThresholds {
	return SegmentThresholds{
		VIPVisits:         cfg.VIPVisitCount,
		RegularVisits:     cfg.RegularVisitCount,
		LapsedDays:        cfg.LapsedDays,
		PriceSensitiveAvg: cfg.PriceSensitiveAvg,
	}
}

// ClassifySegments derives all segments a customer belongs to. Pure:
// same inputs, same result.
func ClassifySegments(customer *models.Customer, now time.Time, t SegmentThresholds) models.StringList {
	var segments models.StringList

	switch {
	case customer.TotalVisits == 0:
		segments = append(segments, SegmentNew)
	case customer.TotalVisits >= t.VIPVisits:
		segments = append(segments, SegmentVIP)
	case customer.TotalVisits >= t.RegularVisits:
		segments = append(segments, SegmentRegular)
	}

	if customer.LastVisit != nil {
		daysSince := int(now.Sub(*customer.LastVisit).Hours() / 24)
		if daysSince > t.LapsedDays {
			segments = append(segments, SegmentLapsed)
		}
	}

	if customer.TotalVisits > 0 {
		avgSpend := customer.TotalSpent / float64(customer.TotalVisits)
		if avgSpend < t.PriceSensitiveAvg {
			segments = append(segments, SegmentPriceSensitive)
		}
	}

	if len(customer.PreferredServices) > 0 {
		segments = append(segments, SegmentServiceSpecific)
	}

	return segments
}
