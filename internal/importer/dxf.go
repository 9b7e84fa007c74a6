package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/SolarLayout/internal/geo"
	"github.com/piwi3910/SolarLayout/internal/model"
)

// segment represents a line segment between two points, used for chaining
// disconnected LINE and ARC entities into closed outlines.
type segment struct {
	start orb.Point
	end   orb.Point
}

// chainTolerance is the endpoint gap (meters) still treated as connected.
const chainTolerance = 0.01

// ImportDXF imports a roof outline from a DXF drawing whose units are meters
// east (x) and north (y) of anchor. The largest closed shape (LWPOLYLINE,
// CIRCLE, or chain of connected LINEs/ARCs) becomes the roof.
func ImportDXF(path string, anchor model.GeoPoint) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var outlines []orb.Ring
	var segments []segment

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			outline := lwPolylineToRing(e)
			if len(outline) >= 3 {
				outlines = append(outlines, outline)
			} else {
				result.Warnings = append(result.Warnings,
					"Skipped LWPOLYLINE with fewer than 3 vertices")
			}

		case *entity.Circle:
			outlines = append(outlines, circleToRing(e, 64))

		case *entity.Arc:
			pts := arcToPoints(e, 32)
			if len(pts) >= 2 {
				segments = append(segments, pointsToSegments(pts)...)
			}

		case *entity.Line:
			segments = append(segments, segment{
				start: orb.Point{e.Start[0], e.Start[1]},
				end:   orb.Point{e.End[0], e.End[1]},
			})

		default:
			// Unsupported entity types are silently skipped
		}
	}

	outlines = append(outlines, chainSegments(segments, chainTolerance)...)

	var usable []orb.Ring
	for _, o := range outlines {
		if ringArea(o) < 0.01 {
			b := o.Bound()
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped degenerate shape (%.2f x %.2f m)", b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]))
			continue
		}
		usable = append(usable, o)
	}

	if len(usable) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	sort.SliceStable(usable, func(i, j int) bool {
		return ringArea(usable[i]) > ringArea(usable[j])
	})
	if len(usable) > 1 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Found %d closed shapes, using the largest as the roof", len(usable)))
	}

	result.Roof = geo.Unproject(usable[0], anchor)
	return result
}

// lwPolylineToRing converts a DXF LWPOLYLINE entity to an open ring.
// Bulge values on vertices produce interpolated arc segments.
func lwPolylineToRing(lw *entity.LwPolyline) orb.Ring {
	var ring orb.Ring

	for i := 0; i < len(lw.Vertices); i++ {
		v := lw.Vertices[i]
		current := orb.Point{v[0], v[1]}

		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}

		if math.Abs(bulge) > 1e-9 {
			nextIdx := (i + 1) % len(lw.Vertices)
			next := orb.Point{lw.Vertices[nextIdx][0], lw.Vertices[nextIdx][1]}
			arcPts := bulgeArcPoints(current, next, bulge, 32)
			// The next vertex is added by its own iteration
			ring = append(ring, arcPts[:len(arcPts)-1]...)
		} else {
			ring = append(ring, current)
		}
	}

	if n := len(ring); n > 1 && ring[0].Equal(ring[n-1]) {
		ring = ring[:n-1]
	}
	return ring
}

// bulgeArcPoints generates points along an arc defined by two endpoints and a
// DXF bulge factor. The bulge is the tangent of 1/4 the included angle;
// positive bulges sweep counter-clockwise.
func bulgeArcPoints(p1, p2 orb.Point, bulge float64, numSegments int) []orb.Point {
	mx := (p1[0] + p2[0]) / 2
	my := (p1[1] + p2[1]) / 2
	dx := p2[0] - p1[0]
	dy := p2[1] - p1[1]
	chordLen := math.Hypot(dx, dy)
	if chordLen < 1e-9 {
		return []orb.Point{p1, p2}
	}

	sagitta := math.Abs(bulge) * chordLen / 2
	radius := (chordLen*chordLen/(4*sagitta) + sagitta) / 2

	// The center sits left of the chord for clockwise arcs
	perpX := -dy / chordLen
	perpY := dx / chordLen
	dist := radius - sagitta
	if bulge > 0 {
		perpX, perpY = -perpX, -perpY
	}
	cx := mx + perpX*dist
	cy := my + perpY*dist

	startAngle := math.Atan2(p1[1]-cy, p1[0]-cx)
	endAngle := math.Atan2(p2[1]-cy, p2[0]-cx)
	if bulge < 0 {
		if endAngle > startAngle {
			endAngle -= 2 * math.Pi
		}
	} else if endAngle < startAngle {
		endAngle += 2 * math.Pi
	}

	pts := make([]orb.Point, 0, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startAngle + t*(endAngle-startAngle)
		pts = append(pts, orb.Point{cx + radius*math.Cos(angle), cy + radius*math.Sin(angle)})
	}
	return pts
}

// circleToRing approximates a circle as a regular polygon.
func circleToRing(c *entity.Circle, numSegments int) orb.Ring {
	ring := make(orb.Ring, numSegments)
	cx, cy, r := c.Center[0], c.Center[1], c.Radius
	for i := 0; i < numSegments; i++ {
		angle := 2 * math.Pi * float64(i) / float64(numSegments)
		ring[i] = orb.Point{cx + r*math.Cos(angle), cy + r*math.Sin(angle)}
	}
	return ring
}

// arcToPoints converts a DXF ARC entity to a series of line points.
// DXF arcs always run counter-clockwise from the start angle.
func arcToPoints(a *entity.Arc, numSegments int) []orb.Point {
	cx, cy := a.Circle.Center[0], a.Circle.Center[1]
	r := a.Circle.Radius

	startRad := a.Angle[0] * math.Pi / 180
	endRad := a.Angle[1] * math.Pi / 180
	if endRad <= startRad {
		endRad += 2 * math.Pi
	}

	pts := make([]orb.Point, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startRad + t*(endRad-startRad)
		pts[i] = orb.Point{cx + r*math.Cos(angle), cy + r*math.Sin(angle)}
	}
	return pts
}

// pointsToSegments converts a point sequence to a slice of connected segments.
func pointsToSegments(pts []orb.Point) []segment {
	segs := make([]segment, 0, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		segs = append(segs, segment{start: pts[i], end: pts[i+1]})
	}
	return segs
}

// chainSegments connects individual segments into closed outlines.
// tolerance is the maximum distance between endpoints to consider them
// connected. Chains that never close are dropped.
func chainSegments(segs []segment, tolerance float64) []orb.Ring {
	if len(segs) == 0 {
		return nil
	}

	used := make([]bool, len(segs))
	var outlines []orb.Ring

	for {
		startIdx := -1
		for i, u := range used {
			if !u {
				startIdx = i
				break
			}
		}
		if startIdx == -1 {
			break
		}

		chain := []orb.Point{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		changed := true
		for changed {
			changed = false
			tail := chain[len(chain)-1]

			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.start, tolerance) {
					chain = append(chain, seg.end)
					used[i] = true
					changed = true
					break
				}
				if pointsClose(tail, seg.end, tolerance) {
					chain = append(chain, seg.start)
					used[i] = true
					changed = true
					break
				}
			}
		}

		if len(chain) < 4 || !pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			continue
		}
		outlines = append(outlines, orb.Ring(chain[:len(chain)-1]))
	}

	return outlines
}

// pointsClose checks whether two points are within the given tolerance.
func pointsClose(a, b orb.Point, tolerance float64) bool {
	return planar.Distance(a, b) <= tolerance
}

// ringArea returns the unsigned area of an open or closed ring.
func ringArea(r orb.Ring) float64 {
	if len(r) < 3 {
		return 0
	}
	closed := r
	if !r.Closed() {
		closed = append(append(orb.Ring{}, r...), r[0])
	}
	return math.Abs(planar.Area(closed))
}
