package spatial

import (
	"fmt"
	"html"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/golang/geo/s2"
	"github.com/rs/zerolog"

	"github.com/Zachdehooge/nyc-collisions/internal/collision"
)

const (
	DefaultSampleSize = 10000
	DefaultChunkSize  = 50000
	DefaultSeed       = 42
	DefaultHeatRadius = 15
	DefaultZoom       = 11

	DefaultTileURL     = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`

	markerRadius            = 5
	markerFillOpacity       = 0.7
	popupMaxWidth           = 300
	maxClusterRadius        = 50
	disableClusteringAtZoom = 16
)

// DefaultCenter is lower Manhattan.
var DefaultCenter = LatLng{Lat: 40.7128, Lng: -74.0060}

// Options tunes Render. Zero values fall back to the defaults above.
type Options struct {
	SampleSize  int
	ChunkSize   int
	Seed        uint64
	HeatRadius  int
	Center      LatLng
	Zoom        int
	TileURL     string
	Attribution string
	Logger      *zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.SampleSize <= 0 {
		o.SampleSize = DefaultSampleSize
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.HeatRadius <= 0 {
		o.HeatRadius = DefaultHeatRadius
	}
	if o.Center == (LatLng{}) {
		o.Center = DefaultCenter
	}
	if o.Zoom <= 0 {
		o.Zoom = DefaultZoom
	}
	if o.TileURL == "" {
		o.TileURL = DefaultTileURL
		o.Attribution = DefaultAttribution
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	return o
}

// Render builds the collision map. Every record feeds the heatmap, processed
// ChunkSize records at a time; at most SampleSize records become markers.
// An empty dataset yields empty layers.
func Render(records []collision.Record, opts Options) *MapArtifact {
	opts = opts.withDefaults()
	log := opts.Logger

	log.Info().Int("records", len(records)).Msg("Starting spatial visualization")

	m := &MapArtifact{
		Center:       opts.Center,
		Zoom:         opts.Zoom,
		TileURL:      opts.TileURL,
		Attribution:  opts.Attribution,
		LayerControl: true,
	}

	points, bounds, chunks := accumulateHeatmap(records, opts.ChunkSize, log)
	m.Heatmap = HeatmapLayer{
		Name:   "Heatmap",
		Radius: opts.HeatRadius,
		Points: points,
	}
	m.Bounds = bounds

	sample := Sample(records, opts.SampleSize, opts.Seed)
	if len(sample) < len(records) {
		log.Info().Int("sample_size", len(sample)).Msg("Using a sample of collisions for detailed markers")
	} else {
		log.Info().Int("records", len(sample)).Msg("Using all collisions for detailed markers")
	}

	m.Markers = MarkerClusterLayer{
		Name:                    "Collisions",
		MaxClusterRadius:        maxClusterRadius,
		DisableClusteringAtZoom: disableClusteringAtZoom,
		Markers:                 buildMarkers(sample, log),
	}

	summary := collision.Summarize(records)
	m.Stats = Stats{
		Records: len(records),
		Chunks:  chunks,
		Points:  len(points),
		Markers: len(m.Markers.Markers),
		Sampled: len(sample) < len(records),

		BySeverity: summary.BySeverity,
		Summary:    summary,
	}

	log.Info().
		Int("points", m.Stats.Points).
		Int("markers", m.Stats.Markers).
		Int("chunks", m.Stats.Chunks).
		Msg("Map visualization complete")

	return m
}

// ChunkCount is the number of chunks of at most size records needed to
// cover n records.
func ChunkCount(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

func accumulateHeatmap(records []collision.Record, chunkSize int, log *zerolog.Logger) ([][2]float64, s2.Rect, int) {
	n := len(records)
	total := ChunkCount(n, chunkSize)
	step := max(1, total/10)

	points := make([][2]float64, 0, n)
	bounds := s2.EmptyRect()
	chunks := 0

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		for _, r := range records[start:end] {
			points = append(points, [2]float64{r.Latitude, r.Longitude})
			bounds = bounds.AddPoint(s2.LatLngFromDegrees(r.Latitude, r.Longitude))
		}
		chunks++

		if chunks%step == 0 || chunks == 1 || chunks == total {
			log.Info().
				Str("progress", fmt.Sprintf("%.1f%%", float64(chunks)/float64(total)*100)).
				Int("points", end).
				Int("total", n).
				Msg("Heatmap chunk processed")
		}
	}

	return points, bounds, chunks
}

// Sample returns size records drawn uniformly without replacement using a
// generator seeded with seed, kept in dataset order. When the dataset holds
// no more than size records it is returned whole.
func Sample(records []collision.Record, size int, seed uint64) []collision.Record {
	n := len(records)
	if size <= 0 || n <= size {
		return records
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < size; i++ {
		j := i + rng.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	picked := idx[:size]
	slices.Sort(picked)

	out := make([]collision.Record, size)
	for i, k := range picked {
		out[i] = records[k]
	}
	return out
}

func buildMarkers(sample []collision.Record, log *zerolog.Logger) []Marker {
	total := len(sample)
	step := max(1, total/5)
	markers := make([]Marker, 0, total)

	for i, r := range sample {
		sev := r.Severity()
		markers = append(markers, Marker{
			Lat:           r.Latitude,
			Lng:           r.Longitude,
			Color:         collision.Color(sev),
			Radius:        markerRadius,
			FillOpacity:   markerFillOpacity,
			Popup:         Popup(r),
			PopupMaxWidth: popupMaxWidth,
			Severity:      sev.String(),
		})

		if (i+1)%step == 0 {
			log.Info().
				Str("progress", fmt.Sprintf("%.1f%%", float64(i+1)/float64(total)*100)).
				Int("markers", i+1).
				Int("total", total).
				Msg("Markers placed")
		}
	}
	return markers
}

// Popup formats the marker summary for a record. Values are HTML-escaped.
func Popup(r collision.Record) string {
	var b strings.Builder
	line := func(label, value string) {
		if value == "" {
			value = "N/A"
		}
		fmt.Fprintf(&b, "<b>%s:</b> %s<br>", label, html.EscapeString(value))
	}

	line("Date", r.Date())
	line("Time", r.Time())
	line("Borough", r.Borough)
	line("Injuries", strconv.Itoa(int(r.Injured)))
	line("Fatalities", strconv.Itoa(int(r.Killed)))
	line("Vehicle 1", r.VehicleType1)
	line("Vehicle 2", r.VehicleType2)
	line("Factor 1", r.Factor1)
	line("Factor 2", r.Factor2)
	return b.String()
}
