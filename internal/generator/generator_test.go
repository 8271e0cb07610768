package generator

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/Zachdehooge/nyc-collisions/internal/collision"
	"github.com/Zachdehooge/nyc-collisions/internal/spatial"
)

func TestRenderMap(t *testing.T) {
	records := []collision.Record{
		{Latitude: 40.71, Longitude: -74.00, Killed: 1, Borough: "MANHATTAN"},
		{Latitude: 40.72, Longitude: -73.99, Injured: 5, Factor1: "<b>Unsafe</b>"},
		{Latitude: 40.73, Longitude: -73.98},
	}
	m := spatial.Render(records, spatial.Options{ChunkSize: 1})

	var buf bytes.Buffer
	if err := RenderMap(&buf, m); err != nil {
		t.Fatalf("RenderMap failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"leaflet@1.9.4/dist/leaflet.js",
		"leaflet-heat.js",
		"leaflet.markercluster.js",
		"L.heatLayer([[40.71,-74],[40.72,-73.99],[40.73,-73.98]],",
		"L.control.layers(null, overlays",
		`"color":"red"`,
		`"color":"orange"`,
		`"color":"green"`,
		"Collisions: 3",
		"Fatal: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered map missing %q", want)
		}
	}

	for _, pattern := range []string{
		`radius:\s*15\s*}`,
		`maxClusterRadius:\s*50\s*,`,
		`disableClusteringAtZoom:\s*16\s*}`,
		`setView\(initialView, initialZoom\)`,
		`const initialView = \s*\[40.7128,-74.006\]\s*, initialZoom = \s*11\s*;`,
	} {
		if !regexp.MustCompile(pattern).MatchString(out) {
			t.Errorf("rendered map does not match %s", pattern)
		}
	}

	if strings.Contains(out, "<b>Unsafe</b>") {
		t.Error("record values must not reach the page unescaped")
	}
}

func TestRenderMapEmpty(t *testing.T) {
	m := spatial.Render(nil, spatial.Options{})

	var buf bytes.Buffer
	if err := RenderMap(&buf, m); err != nil {
		t.Fatalf("RenderMap failed: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "L.heatLayer([],") {
		t.Error("expected an empty heatmap layer")
	}
	if !strings.Contains(out, "const markerData = [];") {
		t.Error("expected an empty marker list")
	}
	if !strings.Contains(out, "const dataBounds = null;") {
		t.Error("expected null bounds for an empty map")
	}
	if !strings.Contains(out, "No collisions with coordinates") {
		t.Error("expected the empty-dataset notice")
	}
}

func TestRenderMapStatCards(t *testing.T) {
	day := time.Date(2025, time.May, 12, 0, 0, 0, 0, time.UTC)
	crash := func(hour int, factor string) collision.Record {
		return collision.Record{
			Latitude: 40.7, Longitude: -74,
			CrashDate: day, CrashTime: time.Duration(hour) * time.Hour, HasTime: true,
			Factor1: factor, Factor2: "Unspecified",
		}
	}
	records := []collision.Record{
		crash(16, "Failure to Yield Right-of-Way"),
		crash(17, "Failure to Yield Right-of-Way"),
		crash(17, "Unsafe Speed"),
		crash(18, "Unspecified"),
		crash(18, "Unspecified"),
		crash(3, "Unspecified"),
	}
	m := spatial.Render(records, spatial.Options{})

	var buf bytes.Buffer
	if err := RenderMap(&buf, m); err != nil {
		t.Fatalf("RenderMap failed: %v", err)
	}
	out := buf.String()

	for _, pattern := range []string{
		`<div class="stat-number">6.0</div>\s*<div class="stat-label">Daily Collisions</div>`,
		`<div class="stat-number">5PM-6PM</div>\s*<div class="stat-label">Peak Hours</div>`,
		`<div class="stat-number">Failure to Yield</div>\s*<div class="stat-label">Top Factor</div>`,
	} {
		if !regexp.MustCompile(pattern).MatchString(out) {
			t.Errorf("rendered map does not match %s", pattern)
		}
	}
}

func TestStatCardsEmpty(t *testing.T) {
	for _, c := range statCards(collision.Summarize(nil)) {
		if c.Value != "N/A" {
			t.Errorf("%s: expected N/A without data, got %s", c.Label, c.Value)
		}
	}
}

func TestFormatAverage(t *testing.T) {
	tests := map[float64]string{0.5: "0.5", 9.96: "10.0", 10: "10", 254.6: "255"}
	for in, want := range tests {
		if got := formatAverage(in); got != want {
			t.Errorf("formatAverage(%v) = %s, expected %s", in, got, want)
		}
	}
}

func TestGenerateMapHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.html")
	m := spatial.Render([]collision.Record{{Latitude: 40.7, Longitude: -74}}, spatial.Options{})

	if err := GenerateMapHTML(m, path); err != nil {
		t.Fatalf("GenerateMapHTML failed: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "<!DOCTYPE html>") {
		t.Errorf("expected an HTML document, got %.40q", b)
	}
}

func TestSortedSeverityCounts(t *testing.T) {
	counts := map[collision.Severity]int{
		collision.Minor:              4,
		collision.Fatal:              1,
		collision.PropertyDamageOnly: 10,
		collision.Severe:             0,
	}
	got := sortedSeverityCounts(counts)

	if len(got) != 3 {
		t.Fatalf("expected zero counts to be skipped, got %d entries", len(got))
	}
	order := []string{"Fatal", "Minor", "Property Damage Only"}
	for i, want := range order {
		if got[i].Severity != want {
			t.Errorf("position %d: expected %s, got %s", i, want, got[i].Severity)
		}
	}
	if got[2].Class != "pdo" {
		t.Errorf("expected class pdo, got %s", got[2].Class)
	}
}

func TestGenerateIndexHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	pages := []Page{
		{Title: "analysis", Href: "analysis.html", Notebook: "notebooks/analysis.ipynb"},
		{Title: "explainer", Notebook: "notebooks/explainer.ipynb", Error: "exit status 1"},
	}

	if err := GenerateIndexHTML(pages, path); err != nil {
		t.Fatalf("GenerateIndexHTML failed: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(b)

	if !strings.Contains(out, `<a href="analysis.html">analysis</a>`) {
		t.Error("expected a link to the converted notebook")
	}
	if !strings.Contains(out, "Conversion failed: exit status 1") {
		t.Error("expected the failed notebook to be listed")
	}
	if !strings.Contains(out, "Published: 1 of 2") {
		t.Error("expected the published counter")
	}
}
