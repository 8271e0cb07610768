package spatial

import (
	"github.com/golang/geo/s2"

	"github.com/Zachdehooge/nyc-collisions/internal/collision"
)

// LatLng is a coordinate pair in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// MapArtifact is the finished map: a base layer, a heatmap of every record
// and a cluster of sampled markers, both toggleable. Nothing modifies it
// after Render returns.
type MapArtifact struct {
	Center       LatLng
	Zoom         int
	TileURL      string
	Attribution  string
	Heatmap      HeatmapLayer
	Markers      MarkerClusterLayer
	LayerControl bool
	Bounds       s2.Rect
	Stats        Stats
}

// HeatmapLayer renders point density.
type HeatmapLayer struct {
	Name   string
	Radius int
	Points [][2]float64
}

// MarkerClusterLayer groups nearby markers until DisableClusteringAtZoom.
type MarkerClusterLayer struct {
	Name                    string
	MaxClusterRadius        int
	DisableClusteringAtZoom int
	Markers                 []Marker
}

// Marker is a styled circle marker with an HTML popup.
type Marker struct {
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	Color         string  `json:"color"`
	Radius        int     `json:"radius"`
	FillOpacity   float64 `json:"fillOpacity"`
	Popup         string  `json:"popup"`
	PopupMaxWidth int     `json:"maxWidth"`
	Severity      string  `json:"severity"`
}

// Stats records what Render processed.
type Stats struct {
	Records int
	Chunks  int
	Points  int
	Markers int
	Sampled bool

	// BySeverity and Summary cover every record, not just the marker sample.
	BySeverity map[collision.Severity]int
	Summary    collision.Summary
}

// HasBounds reports whether any points contributed to Bounds.
func (m *MapArtifact) HasBounds() bool {
	return !m.Bounds.IsEmpty()
}

// SouthWest and NorthEast return the corners of the data bounds. When the
// points straddle the antimeridian the east edge is unwrapped past 180 so
// the west edge stays below it, as Leaflet expects.
func (m *MapArtifact) SouthWest() LatLng {
	lo := m.Bounds.Lo()
	return LatLng{Lat: lo.Lat.Degrees(), Lng: lo.Lng.Degrees()}
}

func (m *MapArtifact) NorthEast() LatLng {
	hi := m.Bounds.Hi()
	lng := hi.Lng.Degrees()
	if m.Bounds.Lng.IsInverted() {
		lng += 360
	}
	return LatLng{Lat: hi.Lat.Degrees(), Lng: lng}
}
