package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang/geo/s2"

	"github.com/Zachdehooge/nyc-collisions/internal/collision"
)

const userAgent = "nyc-collisions/1.0 (github.com/Zachdehooge/nyc-collisions)"

// ErrMissingColumn is returned when the CSV header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Stats summarises a load.
type Stats struct {
	Rows    int // data rows read
	Kept    int // rows with usable coordinates
	Dropped int // rows without usable coordinates
}

var dateLayouts = []string{"01/02/2006", "1/2/2006", "2006-01-02"}
var timeLayouts = []string{"15:04", "15:04:05"}

// Load opens source (a local path or an http(s) URL) and reads every crash
// record with usable coordinates.
func Load(ctx context.Context, source string) ([]collision.Record, Stats, error) {
	rc, err := Open(ctx, source)
	if err != nil {
		return nil, Stats{}, err
	}
	defer rc.Close()

	return Read(rc)
}

// Open returns a reader for source. URLs are streamed, not buffered.
func Open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open dataset: %w", err)
		}
		return f, nil
	}

	client := &http.Client{Timeout: 60 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/csv")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snip, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		resp.Body.Close()
		return nil, fmt.Errorf("dataset server returned HTTP %d: %s", resp.StatusCode, string(snip))
	}
	return resp.Body, nil
}

// Read parses crash CSV data. Only the columns in collision.Columns are used.
// Rows missing either coordinate, or with coordinates outside the valid
// latitude/longitude range, are dropped and counted.
func Read(r io.Reader) ([]collision.Record, Stats, error) {
	var stats Stats

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, stats, errors.New("dataset is empty")
	}
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read header: %w", err)
	}

	idx, err := columnIndex(header)
	if err != nil {
		return nil, stats, err
	}

	strs := make(interner)
	var records []collision.Record

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read row: %w", err)
		}
		stats.Rows++
		line, _ := cr.FieldPos(0)

		field := func(col string) string {
			i := idx[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		lat, lon, ok := parseCoordinates(field(collision.ColLatitude), field(collision.ColLongitude))
		if !ok {
			stats.Dropped++
			continue
		}

		rec := collision.Record{
			Latitude:     lat,
			Longitude:    lon,
			Borough:      strs.intern(field(collision.ColBorough)),
			VehicleType1: strs.intern(field(collision.ColVehicleType1)),
			VehicleType2: strs.intern(field(collision.ColVehicleType2)),
			Factor1:      strs.intern(field(collision.ColFactor1)),
			Factor2:      strs.intern(field(collision.ColFactor2)),
		}

		if rec.Injured, err = parseCount(field(collision.ColInjured)); err != nil {
			return nil, stats, fmt.Errorf("line %d: %s: %w", line, collision.ColInjured, err)
		}
		if rec.Killed, err = parseCount(field(collision.ColKilled)); err != nil {
			return nil, stats, fmt.Errorf("line %d: %s: %w", line, collision.ColKilled, err)
		}
		if rec.CrashDate, err = parseDate(field(collision.ColCrashDate)); err != nil {
			return nil, stats, fmt.Errorf("line %d: %s: %w", line, collision.ColCrashDate, err)
		}
		if rec.CrashTime, rec.HasTime, err = parseTimeOfDay(field(collision.ColCrashTime)); err != nil {
			return nil, stats, fmt.Errorf("line %d: %s: %w", line, collision.ColCrashTime, err)
		}

		records = append(records, rec)
		stats.Kept++
	}

	return records, stats, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(collision.Columns))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		idx[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range collision.Columns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseCoordinates(latStr, lonStr string) (float64, float64, bool) {
	if latStr == "" || lonStr == "" {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, false
	}
	if !s2.LatLngFromDegrees(lat, lon).IsValid() {
		return 0, 0, false
	}
	return lat, lon, true
}

func parseCount(s string) (uint16, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return uint16(n), nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	// Socrata exports sometimes carry a midnight timestamp on the date column
	if t, err := time.Parse("2006-01-02T15:04:05.000", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func parseTimeOfDay(s string) (time.Duration, bool, error) {
	if s == "" {
		return 0, false, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, true, nil
		}
	}
	return 0, false, fmt.Errorf("invalid time %q", s)
}

// interner keeps one copy of each categorical value.
type interner map[string]string

func (in interner) intern(s string) string {
	if v, ok := in[s]; ok {
		return v
	}
	// fields share the backing array of their whole CSV line
	s = strings.Clone(s)
	in[s] = s
	return s
}
