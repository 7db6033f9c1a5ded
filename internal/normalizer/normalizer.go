// Package normalizer fills the gaps the classifier leaves in a parsed
// record: owner chat, date, person retargeting, and best-effort
// inference of recurrence and reminder times from Russian phrases.
// Everything here is pure and takes the clock as an argument.
package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kochnev/domovoy/internal/models"
)

// Recurrence values as they appear in record fields.
const (
	RepeatDaily   = "ежедневно"
	RepeatWeekly  = "еженедельно"
	RepeatMonthly = "ежемесячно"
)

// Recurrence is an inferred repeat rule.
type Recurrence struct {
	Type  string
	Until *time.Time
}

var (
	reDaily    = regexp.MustCompile(`(?i)ежедневно|каждый\s+день`)
	reWeekly   = regexp.MustCompile(`(?i)еженедельно|каждую\s+неделю`)
	reMonthly  = regexp.MustCompile(`(?i)ежемесячно|каждый\s+месяц`)
	reUntilDay = regexp.MustCompile(`(?i)до\s+(\d{1,2})\s+числа`)

	reInHours   = regexp.MustCompile(`(?i)через\s+(\d+)\s*час`)
	reInMinutes = regexp.MustCompile(`(?i)через\s+(\d+)\s*минут`)
	reTomorrow  = regexp.MustCompile(`(?i)завтра\s+в\s+(\d{1,2}):(\d{2})`)
	reAtTime    = regexp.MustCompile(`(?i)в\s+(\d{1,2}):(\d{2})`)
)

// Normalize fills missing owner chat and date, retargets tasks via the
// persisted person-alias map, and applies recurrence and reminder
// inference to the description text. Unmatched text leaves fields
// untouched; Normalize never fails.
func Normalize(rec *models.Record, chatID int64, now time.Time, aliases map[string]int64) {
	if rec.ChatID == 0 {
		rec.ChatID = chatID
	}
	if rec.Date.IsZero() {
		rec.Date = now
	}

	if rec.Kind == models.KindTask && rec.Person != "" {
		if target, ok := aliases[strings.ToLower(strings.TrimSpace(rec.Person))]; ok && target != rec.ChatID {
			rec.ChatID = target
		}
	}

	if rec.RepeatType == "" {
		if rule := InferRecurrence(rec.Description, now); rule != nil {
			rec.RepeatType = rule.Type
			if rule.Until != nil {
				rec.RepeatUntil = rule.Until
			}
		}
	}

	if rec.Kind == models.KindReminder && rec.RemindAt == nil {
		if at := InferRemindAt(rec.Description, now); at != nil {
			rec.RemindAt = at
		}
	}
}

// InferRecurrence scans text for Russian recurrence phrases. "до N
// числа" means "daily until day N of the month": the current month when
// day N is still ahead, otherwise the next one. Returns nil when
// nothing matches.
func InferRecurrence(text string, now time.Time) *Recurrence {
	if m := reUntilDay.FindStringSubmatch(text); m != nil {
		day, err := strconv.Atoi(m[1])
		if err == nil && day >= 1 && day <= 31 {
			until := time.Date(now.Year(), now.Month(), day, 23, 59, 0, 0, now.Location())
			if until.Before(now) {
				until = until.AddDate(0, 1, 0)
			}
			return &Recurrence{Type: RepeatDaily, Until: &until}
		}
	}

	switch {
	case reWeekly.MatchString(text):
		return &Recurrence{Type: RepeatWeekly}
	case reMonthly.MatchString(text):
		return &Recurrence{Type: RepeatMonthly}
	case reDaily.MatchString(text):
		return &Recurrence{Type: RepeatDaily}
	}
	return nil
}

// InferRemindAt scans text for a relative or clock-time reminder phrase
// and computes the absolute timestamp. Returns nil when nothing
// matches.
func InferRemindAt(text string, now time.Time) *time.Time {
	if m := reInHours.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			at := now.Add(time.Duration(n) * time.Hour)
			return &at
		}
	}
	if m := reInMinutes.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			at := now.Add(time.Duration(n) * time.Minute)
			return &at
		}
	}
	if m := reTomorrow.FindStringSubmatch(text); m != nil {
		if at, ok := clockTime(m, now.AddDate(0, 0, 1)); ok {
			return &at
		}
	}
	if m := reAtTime.FindStringSubmatch(text); m != nil {
		if at, ok := clockTime(m, now); ok {
			// A bare clock time that already passed today means tomorrow.
			if at.Before(now) {
				at = at.AddDate(0, 0, 1)
			}
			return &at
		}
	}
	return nil
}

// NextOccurrence advances a recurring reminder to its next fire time.
func NextOccurrence(at time.Time, repeatType string) time.Time {
	switch repeatType {
	case RepeatDaily:
		return at.AddDate(0, 0, 1)
	case RepeatWeekly:
		return at.AddDate(0, 0, 7)
	case RepeatMonthly:
		return at.AddDate(0, 1, 0)
	}
	return at
}

func clockTime(m []string, day time.Time) (time.Time, bool) {
	hour, err1 := strconv.Atoi(m[1])
	minute, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil || hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), true
}

// AliasMap converts persisted aliases to the lookup shape Normalize
// takes.
func AliasMap(aliases []*models.PersonAlias) map[string]int64 {
	m := make(map[string]int64, len(aliases))
	for _, a := range aliases {
		m[strings.ToLower(a.Name)] = a.TargetChatID
	}
	return m
}
