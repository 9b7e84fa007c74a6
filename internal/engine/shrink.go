package engine

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// Tolerances for the offset geometry, in meters (or square meters for area).
const (
	geomEps     = 1e-9
	distanceEps = 1e-7
)

// arcSegmentsPerQuarter is the resolution of the rounded reflex corners.
const arcSegmentsPerQuarter = 16

// Shrink erodes ring inward by offsetM meters and returns the largest
// remaining piece. The input may be open or closed and in either
// orientation; the result is open and counter-clockwise. ok is false when
// nothing of the roof survives the erosion.
func Shrink(ring orb.Ring, offsetM float64) (orb.Ring, bool) {
	parts, ok := Erode(ring, offsetM)
	if !ok {
		return nil, false
	}
	return parts[0], true
}

// Erode returns every piece of ring that lies at least offsetM meters from
// its boundary, largest first. A narrow waist can split a roof into several
// pieces. Each piece is open and counter-clockwise.
func Erode(ring orb.Ring, offsetM float64) ([]orb.Ring, bool) {
	if offsetM < 0 || math.IsNaN(offsetM) {
		return nil, false
	}

	src := cleanRing(ring)
	if src == nil {
		return nil, false
	}
	if offsetM == 0 {
		return []orb.Ring{src}, true
	}

	if isConvex(src) {
		out := cleanRing(clipConvex(src, offsetM))
		if out == nil {
			return nil, false
		}
		return []orb.Ring{out}, true
	}

	parts := erodeConcave(src, offsetM)
	if len(parts) == 0 {
		return nil, false
	}
	sort.SliceStable(parts, func(i, j int) bool {
		return signedArea(parts[i]) > signedArea(parts[j])
	})
	return parts, true
}

// cleanRing removes the closing vertex, repeated vertices and collinear
// vertices, then orients the ring counter-clockwise. It returns nil when
// fewer than three vertices remain or the enclosed area is zero.
func cleanRing(ring orb.Ring) orb.Ring {
	pts := dedupe(ring)
	if len(pts) < 3 {
		return nil
	}

	for changed := true; changed && len(pts) >= 3; {
		changed = false
		for i := 0; i < len(pts) && len(pts) >= 3; i++ {
			prev := pts[(i-1+len(pts))%len(pts)]
			next := pts[(i+1)%len(pts)]
			if collinear(prev, pts[i], next) {
				pts = append(pts[:i], pts[i+1:]...)
				changed = true
				i--
			}
		}
	}
	if len(pts) < 3 {
		return nil
	}

	area := signedArea(pts)
	if math.Abs(area) <= geomEps {
		return nil
	}
	if area < 0 {
		pts.Reverse()
	}
	return pts
}

// dedupe copies ring without the closing vertex and without consecutive
// repeats.
func dedupe(ring orb.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(ring))
	for _, p := range ring {
		if len(out) > 0 && samePoint(out[len(out)-1], p) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && samePoint(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

func samePoint(a, b orb.Point) bool {
	return math.Abs(a[0]-b[0]) <= geomEps && math.Abs(a[1]-b[1]) <= geomEps
}

// collinear reports whether b lies on the line through a and c, measured as
// the distance of b from that line.
func collinear(a, b, c orb.Point) bool {
	cr := cross(sub(b, a), sub(c, b))
	l := math.Max(length(sub(b, a)), length(sub(c, b)))
	if l == 0 {
		return true
	}
	return math.Abs(cr)/l <= geomEps
}

// signedArea is positive for counter-clockwise rings.
func signedArea(pts orb.Ring) float64 {
	var a float64
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i][0]*pts[j][1] - pts[j][0]*pts[i][1]
	}
	return a / 2
}

// isConvex expects a cleaned counter-clockwise ring.
func isConvex(pts orb.Ring) bool {
	n := len(pts)
	for i := 0; i < n; i++ {
		a, b, c := pts[i], pts[(i+1)%n], pts[(i+2)%n]
		if cross(sub(b, a), sub(c, b)) <= 0 {
			return false
		}
	}
	return true
}

// clipConvex intersects the inward half-planes of every edge shifted by d.
func clipConvex(pts orb.Ring, d float64) orb.Ring {
	out := append(orb.Ring(nil), pts...)
	n := len(pts)
	for i := 0; i < n && len(out) > 0; i++ {
		a, b := pts[i], pts[(i+1)%n]
		nrm := inwardNormal(a, b)
		out = clipHalfPlane(out, func(p orb.Point) float64 {
			return dot(sub(p, a), nrm) - d
		})
	}
	return out
}

// clipHalfPlane keeps the part of poly where side(p) >= 0.
func clipHalfPlane(poly orb.Ring, side func(orb.Point) float64) orb.Ring {
	var out orb.Ring
	for i := range poly {
		cur, next := poly[i], poly[(i+1)%len(poly)]
		sc, sn := side(cur), side(next)
		if sc >= 0 {
			out = append(out, cur)
		}
		if (sc >= 0) != (sn >= 0) {
			t := sc / (sc - sn)
			out = append(out, orb.Point{cur[0] + t*(next[0]-cur[0]), cur[1] + t*(next[1]-cur[1])})
		}
	}
	return out
}

// selfIntersects reports whether any two non-adjacent edges of the ring
// touch or cross.
func selfIntersects(pts orb.Ring) bool {
	n := len(pts)
	if n < 3 {
		return true
	}
	for i := 0; i < n; i++ {
		a1, a2 := pts[i], pts[(i+1)%n]
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if segmentsIntersect(a1, a2, pts[j], pts[(j+1)%n]) {
				return true
			}
		}
	}
	return false
}

func segmentsIntersect(p1, p2, p3, p4 orb.Point) bool {
	d1 := orient(p3, p4, p1)
	d2 := orient(p3, p4, p2)
	d3 := orient(p1, p2, p3)
	d4 := orient(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(p3, p4, p1)) ||
		(d2 == 0 && onSegment(p3, p4, p2)) ||
		(d3 == 0 && onSegment(p1, p2, p3)) ||
		(d4 == 0 && onSegment(p1, p2, p4))
}

// orient returns the sign of the turn a->b->c, with near-zero snapped to 0.
func orient(a, b, c orb.Point) int {
	v := cross(sub(b, a), sub(c, a))
	switch {
	case v > geomEps*geomEps:
		return 1
	case v < -geomEps*geomEps:
		return -1
	}
	return 0
}

func onSegment(a, b, p orb.Point) bool {
	return p[0] >= math.Min(a[0], b[0])-geomEps && p[0] <= math.Max(a[0], b[0])+geomEps &&
		p[1] >= math.Min(a[1], b[1])-geomEps && p[1] <= math.Max(a[1], b[1])+geomEps
}

func pointSegmentDistance(p, a, b orb.Point) float64 {
	ab := sub(b, a)
	l2 := dot(ab, ab)
	if l2 == 0 {
		return length(sub(p, a))
	}
	t := math.Max(0, math.Min(1, dot(sub(p, a), ab)/l2))
	return length(sub(p, add(a, scale(ab, t))))
}

// inwardNormal is the unit left normal of a->b, which points into a
// counter-clockwise ring.
func inwardNormal(a, b orb.Point) orb.Point {
	v := sub(b, a)
	l := length(v)
	if l == 0 {
		return orb.Point{}
	}
	return orb.Point{-v[1] / l, v[0] / l}
}

func sub(a, b orb.Point) orb.Point { return orb.Point{a[0] - b[0], a[1] - b[1]} }
func add(a, b orb.Point) orb.Point { return orb.Point{a[0] + b[0], a[1] + b[1]} }
func scale(a orb.Point, s float64) orb.Point { return orb.Point{a[0] * s, a[1] * s} }
func dot(a, b orb.Point) float64 { return a[0]*b[0] + a[1]*b[1] }
func cross(a, b orb.Point) float64 { return a[0]*b[1] - a[1]*b[0] }
func length(a orb.Point) float64 { return math.Hypot(a[0], a[1]) }
