package collision

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// UnknownBorough labels records whose borough column is blank.
const UnknownBorough = "UNKNOWN"

// Summary counts records by severity, overall and per borough, and tracks
// when crashes happen and what caused them.
type Summary struct {
	Total      int
	Injured    int
	Killed     int
	BySeverity map[Severity]int
	ByBorough  map[string]map[Severity]int

	// ByHour counts records with a known crash time by hour of day.
	ByHour [24]int
	// ByFactor counts contributing factors across both vehicle columns.
	ByFactor map[string]int

	// Dated is the number of records with a crash date; FirstDate and
	// LastDate bound them.
	Dated     int
	FirstDate time.Time
	LastDate  time.Time
}

// Summarize tallies records.
func Summarize(records []Record) Summary {
	s := Summary{
		BySeverity: make(map[Severity]int),
		ByBorough:  make(map[string]map[Severity]int),
		ByFactor:   make(map[string]int),
	}
	for _, r := range records {
		sev := r.Severity()
		s.Total++
		s.Injured += int(r.Injured)
		s.Killed += int(r.Killed)
		s.BySeverity[sev]++

		b := r.Borough
		if b == "" {
			b = UnknownBorough
		}
		if s.ByBorough[b] == nil {
			s.ByBorough[b] = make(map[Severity]int)
		}
		s.ByBorough[b][sev]++

		if h, ok := r.Hour(); ok {
			s.ByHour[h]++
		}
		for _, f := range [2]string{r.Factor1, r.Factor2} {
			if f != "" {
				s.ByFactor[f]++
			}
		}

		if !r.CrashDate.IsZero() {
			s.Dated++
			if s.FirstDate.IsZero() || r.CrashDate.Before(s.FirstDate) {
				s.FirstDate = r.CrashDate
			}
			if r.CrashDate.After(s.LastDate) {
				s.LastDate = r.CrashDate
			}
		}
	}
	return s
}

// Boroughs returns borough names sorted by total records, largest first.
func (s Summary) Boroughs() []string {
	totals := make(map[string]int, len(s.ByBorough))
	names := make([]string, 0, len(s.ByBorough))
	for b, counts := range s.ByBorough {
		for _, n := range counts {
			totals[b] += n
		}
		names = append(names, b)
	}
	sort.Slice(names, func(i, j int) bool {
		if totals[names[i]] != totals[names[j]] {
			return totals[names[i]] > totals[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// HourRange is an inclusive span of hours of day.
type HourRange struct {
	Start int
	End   int
}

// String formats the range as "4PM-6PM".
func (r HourRange) String() string {
	return formatHour(r.Start) + "-" + formatHour(r.End)
}

func formatHour(h int) string {
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	if h%12 == 0 {
		return "12" + suffix
	}
	return fmt.Sprintf("%d%s", h%12, suffix)
}

// PeakHours returns the busiest hour widened to the contiguous run of
// neighbouring hours that reach at least 90% of its count. When several
// hours share the top count the earliest is used. ok is false when no
// record has a crash time.
func (s Summary) PeakHours() (r HourRange, ok bool) {
	peak := 0
	for h, n := range s.ByHour {
		if n > s.ByHour[peak] {
			peak = h
		}
	}
	top := s.ByHour[peak]
	if top == 0 {
		return HourRange{}, false
	}

	// n >= 0.9*top without floating point
	busy := func(h int) bool { return 10*s.ByHour[h] >= 9*top }

	r = HourRange{Start: peak, End: peak}
	for r.Start > 0 && busy(r.Start-1) {
		r.Start--
	}
	for r.End < 23 && busy(r.End+1) {
		r.End++
	}
	return r, true
}

// IsUnspecified reports whether a contributing factor carries no
// information.
func IsUnspecified(factor string) bool {
	return factor == "" || factor == "Unspecified" || factor == "unspecified"
}

// TopFactor returns the most frequent contributing factor, ignoring
// unspecified values. Ties go to the alphabetically first factor.
func (s Summary) TopFactor() (factor string, count int, ok bool) {
	for f, n := range s.ByFactor {
		if IsUnspecified(f) {
			continue
		}
		if n > count || (n == count && f < factor) {
			factor, count = f, n
		}
	}
	return factor, count, count > 0
}

// FactorLabel shortens a contributing factor for a stat card.
func FactorLabel(factor string) string {
	switch factor {
	case "Driver Inattention/Distraction":
		return "Distraction"
	case "Failure to Yield Right-of-Way":
		return "Failure to Yield"
	}
	if len(factor) > 15 {
		if words := strings.Fields(factor); len(words) > 2 {
			return strings.Join(words[:2], " ")
		}
	}
	return factor
}

// Days is the number of calendar days from the first to the last crash
// date, inclusive. It is 0 when no record is dated.
func (s Summary) Days() int {
	if s.Dated == 0 {
		return 0
	}
	first := civilDay(s.FirstDate)
	last := civilDay(s.LastDate)
	return int(last.Sub(first).Hours()/24) + 1
}

// DailyAverage is the number of dated records per day over the span the
// data covers.
func (s Summary) DailyAverage() float64 {
	days := s.Days()
	if days == 0 {
		return 0
	}
	return float64(s.Dated) / float64(days)
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
