// Package status derives due dates, due mileages and the due tier of a service.
package status

import (
	"strings"
	"time"

	"github.com/nimasrn/service-reminders/internal/model"
)

const (
	DefaultLeadDays          = 14
	DefaultMileageSoonWindow = 500
)

// Thresholds tunes the tier boundaries. Day values are whole calendar days from today.
type Thresholds struct {
	DueNowDays        int
	LeadDays          int
	MileageSoonWindow int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		DueNowDays:        0,
		LeadDays:          DefaultLeadDays,
		MileageSoonWindow: DefaultMileageSoonWindow,
	}
}

// WithLeadDays returns a copy using the service type's lead window, non-positive values keep the current one.
func (t Thresholds) WithLeadDays(days int) Thresholds {
	if days > 0 {
		t.LeadDays = days
	}
	return t
}

func DeriveDueDate(serviceDate time.Time, timeIntervalDays int) time.Time {
	return serviceDate.AddDate(0, 0, timeIntervalDays)
}

// CalendarDate truncates t to midnight UTC of its local calendar date.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DeriveDueMileage returns nil for date-only service types.
func DeriveDueMileage(mileageAtService int, mileageInterval *int) *int {
	if mileageInterval == nil || *mileageInterval <= 0 {
		return nil
	}
	due := mileageAtService + *mileageInterval
	return &due
}

// DeriveStatus classifies a due snapshot relative to now. Mileage only counts when
// both the due mileage and the current mileage are known.
func DeriveStatus(nextDueDate time.Time, nextDueMileage *int, now time.Time, currentMileage *int, th Thresholds) model.CustomerStatus {
	days := daysBetween(now, nextDueDate)
	mileageKnown := nextDueMileage != nil && currentMileage != nil

	if days < 0 || (mileageKnown && *currentMileage >= *nextDueMileage) {
		return model.CustomerStatusOverdue
	}
	if days <= th.DueNowDays {
		return model.CustomerStatusDueNow
	}
	if days <= th.LeadDays || (mileageKnown && *nextDueMileage-*currentMileage <= th.MileageSoonWindow) {
		return model.CustomerStatusDueSoon
	}
	return model.CustomerStatusUpToDate
}

// daysBetween counts calendar days from the local date of 'from' to the UTC date of 'to'.
// Due dates are stored as UTC calendar dates.
func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.UTC().Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// Urgency ranks tiers, lower is more urgent.
func Urgency(s model.CustomerStatus) int {
	switch s {
	case model.CustomerStatusOverdue:
		return 0
	case model.CustomerStatusDueNow:
		return 1
	case model.CustomerStatusDueSoon:
		return 2
	}
	return 3
}

// MostUrgent folds several tiers into one, an empty input is up to date.
func MostUrgent(tiers ...model.CustomerStatus) model.CustomerStatus {
	best := model.CustomerStatusUpToDate
	for _, s := range tiers {
		if Urgency(s) < Urgency(best) {
			best = s
		}
	}
	return best
}

// ForCustomer derives the customer tier from the latest service record of each vehicle.
// leadDays maps service type names to their lead window.
func ForCustomer(c *model.Customer, now time.Time, th Thresholds, leadDays map[string]int) model.CustomerStatus {
	tiers := make([]model.CustomerStatus, 0, len(c.Vehicles))
	for _, v := range c.Vehicles {
		rec := v.LatestServiceRecord()
		if rec == nil {
			continue
		}
		t := th
		if days, ok := lookupLeadDays(leadDays, rec.ServiceType); ok {
			t = th.WithLeadDays(days)
		}
		tiers = append(tiers, DeriveStatus(rec.NextDueDate, rec.NextDueMileage, now, v.MileageAtLastService, t))
	}
	return MostUrgent(tiers...)
}

func lookupLeadDays(leadDays map[string]int, serviceType string) (int, bool) {
	if d, ok := leadDays[serviceType]; ok {
		return d, true
	}
	// variants of one service may disagree, the widest window wins
	best, found := 0, false
	for name, d := range leadDays {
		if MatchesServiceType(name, serviceType) && (!found || d > best) {
			best, found = d, true
		}
	}
	return best, found
}

var variantSuffixes = []string{"_conventional", "_synthetic"}

// NormalizeServiceType strips the oil variant qualifier so a generic name matches both variants.
func NormalizeServiceType(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, suffix := range variantSuffixes {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}

// MatchesServiceType reports whether a rule's service type applies to a recorded service type.
func MatchesServiceType(ruleType, recordType string) bool {
	if ruleType == recordType {
		return true
	}
	return NormalizeServiceType(ruleType) == NormalizeServiceType(recordType)
}
