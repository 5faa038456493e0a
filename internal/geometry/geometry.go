package geometry

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the supported region geometries.
type Kind string

const (
	KindBox     Kind = "box"
	KindPolygon Kind = "polygon"
)

// Point is a position in mall space. Y is the vertical axis.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Corners returns the eight corner points of the box.
func (b Box) Corners() []Point {
	out := make([]Point, 0, 8)
	for _, x := range []float64{b.Min.X, b.Max.X} {
		for _, y := range []float64{b.Min.Y, b.Max.Y} {
			for _, z := range []float64{b.Min.Z, b.Max.Z} {
				out = append(out, Point{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}

// Region is an authorized editing area: either an axis-aligned box or a
// vertical prism over a 2D polygon footprint (X/Z plane, Y interval).
type Region struct {
	Kind    Kind         `json:"kind"`
	Min     *Point       `json:"min,omitempty"`
	Max     *Point       `json:"max,omitempty"`
	Points  [][2]float64 `json:"points,omitempty"`
	MinY    float64      `json:"minY,omitempty"`
	MaxY    float64      `json:"maxY,omitempty"`
}

// Parse decodes a stored geometry document.
func Parse(raw []byte) (*Region, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty geometry")
	}
	var region Region
	if err := json.Unmarshal(raw, &region); err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	switch region.Kind {
	case KindBox:
		if region.Min == nil || region.Max == nil {
			return nil, fmt.Errorf("box geometry requires min and max")
		}
	case KindPolygon:
		if len(region.Points) < 3 {
			return nil, fmt.Errorf("polygon geometry requires at least 3 points")
		}
	default:
		return nil, fmt.Errorf("unsupported geometry kind %q", region.Kind)
	}
	return &region, nil
}

// ContainsPoint reports whether the region contains the point. Boundary
// points count as inside.
func (r *Region) ContainsPoint(p Point) bool {
	switch r.Kind {
	case KindBox:
		return p.X >= r.Min.X && p.X <= r.Max.X &&
			p.Y >= r.Min.Y && p.Y <= r.Max.Y &&
			p.Z >= r.Min.Z && p.Z <= r.Max.Z
	case KindPolygon:
		if p.Y < r.MinY || p.Y > r.MaxY {
			return false
		}
		return pointInPolygon(p.X, p.Z, r.Points)
	default:
		return false
	}
}

// ContainsBox reports whether the region fully contains the box. For polygon
// regions every corner must fall inside the footprint and the Y interval.
func (r *Region) ContainsBox(b Box) bool {
	for _, corner := range b.Corners() {
		if !r.ContainsPoint(corner) {
			return false
		}
	}
	return true
}

// pointInPolygon is a standard ray casting test on the X/Z plane. Vertices on
// an edge may land on either side depending on float rounding; callers that
// need boundary tolerance should inset their polygons.
func pointInPolygon(x, z float64, points [][2]float64) bool {
	inside := false
	n := len(points)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, zi := points[i][0], points[i][1]
		xj, zj := points[j][0], points[j][1]
		if (zi > z) != (zj > z) &&
			x < (xj-xi)*(z-zi)/(zj-zi)+xi {
			inside = !inside
		}
	}
	return inside
}
