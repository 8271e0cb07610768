package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	"github.com/Zachdehooge/nyc-collisions/internal/collision"
	"github.com/Zachdehooge/nyc-collisions/internal/spatial"
)

const mapTitle = "NYC Motor Vehicle Collisions"

var mapTmpl = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
   <meta charset="UTF-8"/>
   <meta name="viewport" content="width=device-width, initial-scale=1.0"/>
   <title>{{ .Title }}</title>
   <link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css" />
   <link rel="stylesheet" href="https://unpkg.com/leaflet.markercluster@1.5.3/dist/MarkerCluster.css" />
   <link rel="stylesheet" href="https://unpkg.com/leaflet.markercluster@1.5.3/dist/MarkerCluster.Default.css" />
   <script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
   <script src="https://unpkg.com/leaflet.heat@0.2.0/dist/leaflet-heat.js"></script>
   <script src="https://unpkg.com/leaflet.markercluster@1.5.3/dist/leaflet.markercluster.js"></script>
   <style>
      :root {
         --bg-color: #121212;
         --text-color: #e0e0e0;
         --card-bg: #1e1e1e;
         --card-border: #333;
         --summary-bg: #252525;
         --header-bg: #2d2d45;
         --header-border: #444466;
         --tab-active-bg: #3d3d5c;
         --fatal-bg: #4d0000;
         --fatal-border: #ff0000;
         --severe-bg: #4d3510;
         --severe-border: #ffa500;
         --minor-bg: #1a2a4d;
         --minor-border: #3388ff;
         --pdo-bg: #1a3d1a;
         --pdo-border: #00aa00;
      }
      body {
         font-family: Arial, sans-serif;
         max-width: 1200px;
         margin: 0 auto;
         padding: 20px;
         background-color: var(--bg-color);
         color: var(--text-color);
      }
      html { background-color: #121212; }
      .map {
         height: 700px; width: 100%;
         border: 2px solid var(--card-border);
         border-radius: 5px; margin-top: 20px;
      }
      .map-legend {
         background-color: var(--card-bg); padding: 10px;
         border-radius: 5px; margin-top: 10px;
         border: 1px solid var(--card-border);
      }
      .legend-item { display: flex; align-items: center; margin: 5px 0; }
      .legend-color { width: 20px; height: 20px; margin-right: 10px; border-radius: 50%; border: 1px solid #fff; }
      .severity-types {
         margin-bottom: 15px; background-color: var(--summary-bg);
         padding: 15px; border-radius: 5px; display: flex; flex-wrap: wrap; align-items: center;
      }
      .severity-types h2 { margin-right: 15px; margin-bottom: 5px; }
      .severity-type {
         margin: 5px 0; padding: 3px 8px; border-radius: 3px;
         display: inline-block; margin-right: 10px;
      }
      .severity-type.fatal  { background-color: var(--fatal-bg);  border: 1px solid var(--fatal-border); }
      .severity-type.severe { background-color: var(--severe-bg); border: 1px solid var(--severe-border); }
      .severity-type.minor  { background-color: var(--minor-bg);  border: 1px solid var(--minor-border); }
      .severity-type.pdo    { background-color: var(--pdo-bg);    border: 1px solid var(--pdo-border); }
      .leaflet-control-reset-map {
         background-color: var(--header-bg); color: var(--text-color);
         padding: 8px 12px; border-radius: 4px; border: 1px solid var(--header-border);
         cursor: pointer; font-size: 14px; font-family: Arial, sans-serif;
      }
      .leaflet-control-reset-map:hover { background-color: var(--tab-active-bg); }
      h1, h2, h4 { color: var(--text-color); }
      .stat-cards { display: flex; flex-wrap: wrap; gap: 15px; margin-bottom: 15px; }
      .stat-card {
         flex: 1 1 180px; background-color: var(--card-bg); padding: 15px;
         border-radius: 5px; border: 1px solid var(--card-border); text-align: center;
      }
      .stat-number { font-size: 1.8em; font-weight: bold; }
      .stat-label { color: #aaa; margin-top: 5px; }
      .hint { font-size: 0.8em; margin-top: 10px; color: #888; }
   </style>
</head>
<body>
   <h1>{{ .Title }}</h1>

   <div class="stat-cards">
      {{ range .StatCards }}
         <div class="stat-card">
            <div class="stat-number">{{ .Value }}</div>
            <div class="stat-label">{{ .Label }}</div>
         </div>
      {{ end }}
   </div>

   {{ if .SeverityCounts }}
   <div class="severity-types">
      <h2>Severity:</h2>
      {{ range .SeverityCounts }}
         <div class="severity-type {{ .Class }}">{{ .Severity }}: {{ .Count }}</div>
      {{ end }}
   </div>
   {{ end }}

   <h4>Collisions: {{ .Records }}</h4>
   <h4>Markers: {{ .Markers }}{{ if .Sampled }} (random sample){{ end }}</h4>
   <h4>Last updated: {{ .LastUpdated }}</h4>

   {{ if eq .Records 0 }}
      <p>No collisions with coordinates in this dataset.</p>
   {{ end }}

   <div id="{{ .MapID }}" class="map"></div>
   <div class="map-legend">
      {{ range .Legend }}
         <div class="legend-item"><div class="legend-color" style="background-color: {{ .Color }}"></div>{{ .Label }}</div>
      {{ end }}
   </div>
   <div class="hint">Use the layer control (top right) to toggle the heatmap and markers. Zoom in to break clusters apart; click a marker for details.</div>

   <script>
      (function() {
          const initialView = {{ .Center }}, initialZoom = {{ .Zoom }};
          const map = L.map({{ .MapID }}).setView(initialView, initialZoom);

          L.tileLayer({{ .TileURL }}, {
              attribution: {{ .Attribution }},
              maxZoom: 19
          }).addTo(map);

          const heatLayer = L.heatLayer({{ .HeatJSON }}, { radius: {{ .HeatRadius }} }).addTo(map);

          const markerData = {{ .MarkersJSON }};
          const clusterLayer = L.markerClusterGroup({
              maxClusterRadius: {{ .MaxClusterRadius }},
              disableClusteringAtZoom: {{ .DisableClusteringAtZoom }}
          });
          markerData.forEach(m => {
              L.circleMarker([m.lat, m.lng], {
                  radius: m.radius,
                  color: m.color,
                  fill: true,
                  fillOpacity: m.fillOpacity
              }).bindPopup(m.popup, { maxWidth: m.maxWidth }).addTo(clusterLayer);
          });
          clusterLayer.addTo(map);

          {{ if .LayerControl }}
          const overlays = {};
          overlays[{{ .HeatName }}] = heatLayer;
          overlays[{{ .ClusterName }}] = clusterLayer;
          L.control.layers(null, overlays, { collapsed: false }).addTo(map);
          {{ end }}

          const dataBounds = {{ .BoundsJSON }};
          L.Control.ResetMap = L.Control.extend({
              onAdd: function(map) {
                  const btn = L.DomUtil.create('button', 'leaflet-control-reset-map');
                  btn.innerHTML = '⟲ Reset Map'; btn.title = 'Reset to the initial view';
                  btn.onclick = function(e) {
                      L.DomEvent.stopPropagation(e);
                      map.setView(initialView, initialZoom);
                  };
                  btn.ondblclick = function(e) {
                      L.DomEvent.stopPropagation(e);
                      if (dataBounds) map.fitBounds(dataBounds, { padding: [20, 20] });
                  };
                  return btn;
              }
          });
          L.control.resetMap = opts => new L.Control.ResetMap(opts);
          L.control.resetMap({ position: 'topleft' }).addTo(map);
      })();
   </script>
</body>
</html>
`))

// SeverityCount is one entry of the severity summary bar.
type SeverityCount struct {
	Severity string
	Class    string
	Count    int
	rank     int
}

// StatCard is one headline number above the map.
type StatCard struct {
	Label string
	Value string
}

// LegendItem pairs a marker color with its severity label.
type LegendItem struct {
	Color string
	Label string
}

type mapData struct {
	Title          string
	MapID          string
	LastUpdated    string
	Records        int
	Markers        int
	Sampled        bool
	SeverityCounts []SeverityCount
	StatCards      []StatCard
	Legend         []LegendItem

	Center      [2]float64
	Zoom        int
	TileURL     string
	Attribution string

	HeatName   string
	HeatRadius int
	HeatJSON   template.JS

	ClusterName             string
	MaxClusterRadius        int
	DisableClusteringAtZoom int
	MarkersJSON             template.JS

	LayerControl bool
	BoundsJSON   template.JS
}

// GenerateMapHTML renders the map and atomically replaces outputPath.
func GenerateMapHTML(m *spatial.MapArtifact, outputPath string) error {
	var buf bytes.Buffer
	if err := RenderMap(&buf, m); err != nil {
		return err
	}
	if err := atomic.WriteFile(outputPath, &buf); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return nil
}

// RenderMap writes the map as a self-contained HTML document.
func RenderMap(w io.Writer, m *spatial.MapArtifact) error {
	heatJSON, err := toJSON(nonNil(m.Heatmap.Points))
	if err != nil {
		return fmt.Errorf("failed to marshal heatmap points: %w", err)
	}
	markersJSON, err := toJSON(nonNil(m.Markers.Markers))
	if err != nil {
		return fmt.Errorf("failed to marshal markers: %w", err)
	}
	boundsJSON := template.JS("null")
	if m.HasBounds() {
		sw, ne := m.SouthWest(), m.NorthEast()
		if boundsJSON, err = toJSON([2][2]float64{{sw.Lat, sw.Lng}, {ne.Lat, ne.Lng}}); err != nil {
			return fmt.Errorf("failed to marshal bounds: %w", err)
		}
	}

	data := mapData{
		Title:          mapTitle,
		MapID:          "map_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		LastUpdated:    time.Now().Format("Jan 2, 2006 at 3:04:05 PM"),
		Records:        m.Stats.Records,
		Markers:        len(m.Markers.Markers),
		Sampled:        m.Stats.Sampled,
		SeverityCounts: sortedSeverityCounts(m.Stats.BySeverity),
		StatCards:      statCards(m.Stats.Summary),
		Legend:         legend(),

		Center:      [2]float64{m.Center.Lat, m.Center.Lng},
		Zoom:        m.Zoom,
		TileURL:     m.TileURL,
		Attribution: m.Attribution,

		HeatName:   m.Heatmap.Name,
		HeatRadius: m.Heatmap.Radius,
		HeatJSON:   heatJSON,

		ClusterName:             m.Markers.Name,
		MaxClusterRadius:        m.Markers.MaxClusterRadius,
		DisableClusteringAtZoom: m.Markers.DisableClusteringAtZoom,
		MarkersJSON:             markersJSON,

		LayerControl: m.LayerControl,
		BoundsJSON:   boundsJSON,
	}

	return mapTmpl.Execute(w, data)
}

func statCards(s collision.Summary) []StatCard {
	daily, peak, factor := "N/A", "N/A", "N/A"
	if s.Days() > 0 {
		daily = formatAverage(s.DailyAverage())
	}
	if r, ok := s.PeakHours(); ok {
		peak = r.String()
	}
	if f, _, ok := s.TopFactor(); ok {
		factor = collision.FactorLabel(f)
	}
	return []StatCard{
		{Label: "Daily Collisions", Value: daily},
		{Label: "Peak Hours", Value: peak},
		{Label: "Top Factor", Value: factor},
	}
}

// formatAverage keeps one decimal for small averages.
func formatAverage(v float64) string {
	if v < 10 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}

func toJSON(v interface{}) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}

// nonNil keeps empty layers serialising as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func legend() []LegendItem {
	items := make([]LegendItem, 0, len(collision.Severities))
	for _, s := range collision.Severities {
		items = append(items, LegendItem{Color: collision.Color(s), Label: s.String()})
	}
	return items
}

func sortedSeverityCounts(counts map[collision.Severity]int) []SeverityCount {
	var result []SeverityCount
	for sev, n := range counts {
		if n == 0 {
			continue
		}
		result = append(result, SeverityCount{
			Severity: sev.String(),
			Class:    getSeverityClass(sev),
			Count:    n,
			rank:     getSeverityRank(sev),
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].rank > result[j].rank })
	return result
}

func getSeverityClass(s collision.Severity) string {
	switch s {
	case collision.Fatal:
		return "fatal"
	case collision.Severe:
		return "severe"
	case collision.Minor:
		return "minor"
	default:
		return "pdo"
	}
}

func getSeverityRank(s collision.Severity) int {
	switch s {
	case collision.Fatal:
		return 4
	case collision.Severe:
		return 3
	case collision.Minor:
		return 2
	case collision.PropertyDamageOnly:
		return 1
	default:
		return 0
	}
}
