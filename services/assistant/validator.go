package assistant

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bookline/models"
	"bookline/services/catalog"
	"bookline/services/scheduling"
)

// ValidationOutcome is the validator's answer for one candidate.
type ValidationOutcome struct {
	Accepted bool
	Slot     models.Slot // populated when accepted

	Code         RejectCode
	Reason       string
	Prerequisite models.SlotKind // set when Code == RejectPrerequisite
}

// SlotValidator applies the per-kind acceptance rules. It is a pure function
// of its inputs plus read-only lookups against the catalog and the backend's
// availability query; it never mutates the session.
type SlotValidator struct {
	Catalog catalog.CatalogService
	Backend scheduling.Client
}

func (v *SlotValidator) Validate(ctx context.Context, kind models.SlotKind, raw string, session *models.BookingSession) ValidationOutcome {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return reject(RejectInvalid, "empty candidate")
	}

	switch kind {
	case models.SlotService:
		return v.validateService(ctx, raw)
	case models.SlotLocation:
		return v.validateLocation(ctx, raw)
	case models.SlotDate:
		return v.validateDate(raw, session)
	case models.SlotTime:
		return v.validateTime(ctx, raw, session)
	case models.SlotName:
		return validateName(raw)
	case models.SlotEmail:
		return validateEmail(raw)
	default:
		return reject(RejectInvalid, fmt.Sprintf("unknown slot kind %q", kind))
	}
}

func (v *SlotValidator) validateService(ctx context.Context, raw string) ValidationOutcome {
	svc, err := v.Catalog.ResolveService(ctx, raw)
	if err != nil {
		var ambiguous *catalog.AmbiguousError
		var notFound *catalog.NotFoundError
		switch {
		case errors.As(err, &ambiguous):
			return reject(RejectAmbiguous, "matches several services: "+strings.Join(ambiguous.Matches, ", "))
		case errors.As(err, &notFound):
			return reject(RejectNotFound, "no such service in the catalog")
		default:
			return reject(RejectBackend, "catalog lookup failed: "+err.Error())
		}
	}
	return accept(models.Slot{
		Value:           svc.Name,
		Validated:       true,
		ServiceID:       svc.ID,
		DurationMinutes: svc.DurationMinutes,
	})
}

func (v *SlotValidator) validateLocation(ctx context.Context, raw string) ValidationOutcome {
	loc, err := v.Catalog.ResolveLocation(ctx, raw)
	if err != nil {
		var notFound *catalog.NotFoundError
		if errors.As(err, &notFound) {
			return reject(RejectNotFound, "not one of our locations")
		}
		return reject(RejectBackend, "location lookup failed: "+err.Error())
	}
	return accept(models.Slot{
		Value:      loc.Name,
		Validated:  true,
		LocationID: loc.ID,
	})
}

// validateDate resolves the candidate to a concrete calendar date. Relative
// phrases resolve against the session's UpdatedAt date, not wall-clock time;
// replaying a turn always yields the same result.
func (v *SlotValidator) validateDate(raw string, session *models.BookingSession) ValidationOutcome {
	base := session.UpdatedAt
	if base.IsZero() {
		base = session.StartedAt
	}
	baseDay := time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, time.UTC)

	day, ok := resolveDate(raw, baseDay)
	if !ok {
		return reject(RejectInvalid, "could not resolve to a calendar date")
	}
	if day.Before(baseDay) {
		return reject(RejectPastDate, "date is in the past")
	}
	return accept(models.Slot{
		Value:     raw,
		Validated: true,
		ISODate:   day.Format("2006-01-02"),
	})
}

// validateTime needs the service duration and the date, so both of those
// slots must already be validated. An early time candidate is a missing
// prerequisite, not a user error; the most upstream missing slot is reported.
func (v *SlotValidator) validateTime(ctx context.Context, raw string, session *models.BookingSession) ValidationOutcome {
	serviceSlot := session.SlotFor(models.SlotService)
	locationSlot := session.SlotFor(models.SlotLocation)
	dateSlot := session.SlotFor(models.SlotDate)
	if !serviceSlot.Validated {
		return rejectPrerequisite(models.SlotService)
	}
	if !locationSlot.Validated {
		return rejectPrerequisite(models.SlotLocation)
	}
	if !dateSlot.Validated {
		return rejectPrerequisite(models.SlotDate)
	}

	startMinute, ok := parseClock(raw)
	if !ok {
		return reject(RejectInvalid, "could not resolve to a time of day")
	}

	units, err := v.Backend.QueryAvailability(ctx, serviceSlot.ServiceID, locationSlot.LocationID, dateSlot.ISODate)
	if err != nil {
		return reject(RejectBackend, "availability lookup failed: "+err.Error())
	}

	needed := unitsNeeded(serviceSlot.DurationMinutes)
	ids, ok := contiguousUnitsAt(units, startMinute, needed)
	if !ok {
		return reject(RejectUnavailable, "that time is not free on the selected date")
	}

	return accept(models.Slot{
		Value:       raw,
		Validated:   true,
		StartMinute: startMinute,
		TimeUnitIDs: ids,
	})
}

func validateName(raw string) ValidationOutcome {
	if isNumeric(raw) {
		return reject(RejectInvalid, "a name cannot be only digits")
	}
	return accept(models.Slot{Value: raw, Validated: true})
}

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(raw string) ValidationOutcome {
	if !emailRe.MatchString(raw) {
		return reject(RejectInvalid, "not a valid email address")
	}
	return accept(models.Slot{Value: strings.ToLower(raw), Validated: true})
}

func accept(slot models.Slot) ValidationOutcome {
	return ValidationOutcome{Accepted: true, Slot: slot}
}

func reject(code RejectCode, reason string) ValidationOutcome {
	return ValidationOutcome{Code: code, Reason: reason}
}

func rejectPrerequisite(missing models.SlotKind) ValidationOutcome {
	return ValidationOutcome{
		Code:         RejectPrerequisite,
		Reason:       fmt.Sprintf("needs a validated %s first", missing),
		Prerequisite: missing,
	}
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
}

var dateLayouts = []string{"2006-01-02", "02.01.2006", "02/01/2006", "January 2, 2006", "2 January 2006"}

// resolveDate turns a date phrase into a concrete day. Weekday names resolve
// to the next occurrence on or after the base day.
func resolveDate(raw string, base time.Time) (time.Time, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))

	switch text {
	case "today":
		return base, true
	case "tomorrow":
		return base.AddDate(0, 0, 1), true
	case "day after tomorrow":
		return base.AddDate(0, 0, 2), true
	}

	if wd, ok := weekdays[strings.TrimPrefix(text, "next ")]; ok {
		days := (int(wd) - int(base.Weekday()) + 7) % 7
		if days == 0 && strings.HasPrefix(text, "next ") {
			days = 7
		}
		return base.AddDate(0, 0, days), true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

var clockRe = regexp.MustCompile(`^(\d{1,2})(?:[:.](\d{2}))?\s*(am|pm)?$`)

// parseClock turns phrases like "3pm", "15:00" or "9.30am" into minutes
// after midnight.
func parseClock(raw string) (int, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	text = strings.TrimPrefix(text, "at ")

	m := clockRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	switch m[3] {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "":
		// 24h clock; single digits like "3" read as 15:00 would guess,
		// so bare hours below 8 without a meridiem are rejected.
		if m[2] == "" && hour < 8 {
			return 0, false
		}
	}
	if hour > 23 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

// unitsNeeded is the number of backend time units covering a duration.
func unitsNeeded(durationMinutes int) int {
	n := (durationMinutes + scheduling.TimeUnitMinutes - 1) / scheduling.TimeUnitMinutes
	if n < 1 {
		n = 1
	}
	return n
}

// contiguousUnitsAt returns the IDs of `needed` contiguous units starting
// exactly at startMinute, if the availability list contains them.
func contiguousUnitsAt(units []models.TimeUnit, startMinute, needed int) ([]string, bool) {
	byStart := make(map[int]models.TimeUnit, len(units))
	for _, u := range units {
		byStart[u.StartMinute] = u
	}

	ids := make([]string, 0, needed)
	for i := 0; i < needed; i++ {
		u, ok := byStart[startMinute+i*scheduling.TimeUnitMinutes]
		if !ok {
			return nil, false
		}
		ids = append(ids, u.ID)
	}
	return ids, true
}

func isNumeric(s string) bool {
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return true
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
