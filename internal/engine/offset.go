package engine

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Tolerances for splitting and chaining the raw offset curve, in meters.
const (
	snapEps  = 1e-9
	chainEps = 1e-6
)

// offsetPiece is a directed segment of the raw offset curve. Round pieces
// are chords of the arc drawn around the reflex vertex at center.
type offsetPiece struct {
	a, b   orb.Point
	round  bool
	center orb.Point
}

// cut marks where a piece is split, at parameter t along it.
type cut struct {
	t float64
	p orb.Point
}

// erodeConcave erodes a cleaned counter-clockwise ring by d.
//
// The boundary of the eroded region is made of pieces of the edges shifted
// inward by d and of arcs of radius d around reflex vertices. Every one of
// those candidates is split where it meets another, the pieces lying
// exactly d from the roof are kept and chained into closed rings.
// Collapsed edges, consumed arms and narrow waists fall out of the
// distance test without special cases.
func erodeConcave(src orb.Ring, d float64) []orb.Ring {
	var kept []offsetPiece
	for _, p := range splitPieces(rawOffset(src, d)) {
		if onErodedBoundary(src, p, d) {
			kept = append(kept, p)
		}
	}

	var parts []orb.Ring
	for _, loop := range traceLoops(dropOverlaps(kept)) {
		if signedArea(loop) <= geomEps {
			continue
		}
		ring := cleanRing(loop)
		if ring == nil || selfIntersects(ring) {
			continue
		}
		parts = append(parts, ring)
	}
	return parts
}

// rawOffset shifts every edge inward by d and rounds each reflex vertex
// with an arc joining the shifted edges on either side.
func rawOffset(pts orb.Ring, d float64) []offsetPiece {
	n := len(pts)
	var raw []offsetPiece
	for i := 0; i < n; i++ {
		prev, cur, next := pts[(i-1+n)%n], pts[i], pts[(i+1)%n]
		n1 := inwardNormal(prev, cur)
		n2 := inwardNormal(cur, next)

		if cross(sub(cur, prev), sub(next, cur)) < 0 {
			bend := arc(cur, n1, n2, d)
			bend[0] = add(cur, scale(n1, d))
			bend[len(bend)-1] = add(cur, scale(n2, d))
			for k := 0; k+1 < len(bend); k++ {
				raw = append(raw, offsetPiece{a: bend[k], b: bend[k+1], round: true, center: cur})
			}
		}
		raw = append(raw, offsetPiece{a: add(cur, scale(n2, d)), b: add(next, scale(n2, d))})
	}
	return raw
}

// arc returns points at distance d from c, sweeping clockwise from the
// direction n1 to n2.
func arc(c, n1, n2 orb.Point, d float64) orb.Ring {
	a1 := math.Atan2(n1[1], n1[0])
	a2 := math.Atan2(n2[1], n2[0])
	sweep := a2 - a1
	for sweep > 0 {
		sweep -= 2 * math.Pi
	}
	for sweep <= -2*math.Pi {
		sweep += 2 * math.Pi
	}

	segs := int(math.Ceil(math.Abs(sweep) / (math.Pi / 2) * arcSegmentsPerQuarter))
	if segs < 1 {
		segs = 1
	}
	out := make(orb.Ring, 0, segs+1)
	for k := 0; k <= segs; k++ {
		a := a1 + sweep*float64(k)/float64(segs)
		out = append(out, orb.Point{c[0] + d*math.Cos(a), c[1] + d*math.Sin(a)})
	}
	return out
}

// splitPieces cuts every piece at each point where it meets another one.
// Both sides of a crossing share the same cut point, so the halves chain
// exactly.
func splitPieces(raw []offsetPiece) []offsetPiece {
	cuts := make([][]cut, len(raw))
	for j := range raw {
		for k := j + 1; k < len(raw); k++ {
			addCrossing(raw, cuts, j, k)
		}
	}

	var out []offsetPiece
	for j, p := range raw {
		cs := append(cuts[j], cut{0, p.a}, cut{1, p.b})
		sort.SliceStable(cs, func(x, y int) bool { return cs[x].t < cs[y].t })
		for k := 0; k+1 < len(cs); k++ {
			a, b := cs[k].p, cs[k+1].p
			if length(sub(b, a)) <= snapEps {
				continue
			}
			out = append(out, offsetPiece{a: a, b: b, round: p.round, center: p.center})
		}
	}
	return out
}

// addCrossing records where raw[j] and raw[k] meet. Collinear overlaps cut
// each piece at the other's endpoints.
func addCrossing(raw []offsetPiece, cuts [][]cut, j, k int) {
	p, q := raw[j], raw[k]
	if !boxesTouch(p, q) {
		return
	}

	r, s := sub(p.b, p.a), sub(q.b, q.a)
	rl, sl := length(r), length(s)
	if rl <= snapEps || sl <= snapEps {
		return
	}

	den := cross(r, s)
	if math.Abs(den) <= geomEps*rl*sl {
		if math.Abs(cross(r, sub(q.a, p.a)))/rl > snapEps {
			return
		}
		for _, e := range [2]orb.Point{q.a, q.b} {
			if t := dot(sub(e, p.a), r) / (rl * rl); t > 0 && t < 1 {
				cuts[j] = append(cuts[j], cut{t, e})
			}
		}
		for _, e := range [2]orb.Point{p.a, p.b} {
			if u := dot(sub(e, q.a), s) / (sl * sl); u > 0 && u < 1 {
				cuts[k] = append(cuts[k], cut{u, e})
			}
		}
		return
	}

	w := sub(q.a, p.a)
	t := cross(w, s) / den
	u := cross(w, r) / den
	te, ue := snapEps/rl, snapEps/sl
	if t < -te || t > 1+te || u < -ue || u > 1+ue {
		return
	}

	var x orb.Point
	switch {
	case t <= te:
		x = p.a
	case t >= 1-te:
		x = p.b
	case u <= ue:
		x = q.a
	case u >= 1-ue:
		x = q.b
	default:
		x = add(p.a, scale(r, t))
	}
	cuts[j] = append(cuts[j], cut{clamp01(t), x})
	cuts[k] = append(cuts[k], cut{clamp01(u), x})
}

func boxesTouch(p, q offsetPiece) bool {
	return math.Min(p.a[0], p.b[0]) <= math.Max(q.a[0], q.b[0])+snapEps &&
		math.Min(q.a[0], q.b[0]) <= math.Max(p.a[0], p.b[0])+snapEps &&
		math.Min(p.a[1], p.b[1]) <= math.Max(q.a[1], q.b[1])+snapEps &&
		math.Min(q.a[1], q.b[1]) <= math.Max(p.a[1], p.b[1])+snapEps
}

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}

// onErodedBoundary reports whether a split piece is part of the eroded
// outline: inside the roof and no closer than d to any roof edge. Chord
// midpoints are pushed back onto their arc before measuring.
func onErodedBoundary(src orb.Ring, p offsetPiece, d float64) bool {
	q := scale(add(p.a, p.b), 0.5)
	if p.round {
		if v := sub(q, p.center); length(v) > 0 {
			q = add(p.center, scale(v, d/length(v)))
		}
	}
	if !planar.RingContains(src, q) {
		return false
	}

	n := len(src)
	for i := 0; i < n; i++ {
		if pointSegmentDistance(q, src[i], src[(i+1)%n]) < d-distanceEps {
			return false
		}
	}
	return true
}

// dropOverlaps removes repeated pieces. A piece matched by its own reverse
// bounds a region of zero width, so both go.
func dropOverlaps(pieces []offsetPiece) []offsetPiece {
	drop := make([]bool, len(pieces))
	for i := range pieces {
		for j := i + 1; j < len(pieces); j++ {
			if drop[j] {
				continue
			}
			a, b := pieces[i], pieces[j]
			switch {
			case near(a.a, b.b) && near(a.b, b.a):
				drop[i], drop[j] = true, true
			case near(a.a, b.a) && near(a.b, b.b):
				drop[j] = true
			}
		}
	}

	out := make([]offsetPiece, 0, len(pieces))
	for i, p := range pieces {
		if !drop[i] {
			out = append(out, p)
		}
	}
	return out
}

// traceLoops chains pieces end to start into closed loops. A walk that
// dead-ends is discarded; one that runs into itself keeps only the closed
// part. Where several pieces leave the same point the sharpest left turn
// wins, which keeps touching loops apart.
func traceLoops(pieces []offsetPiece) []orb.Ring {
	used := make([]bool, len(pieces))
	var loops []orb.Ring

	for s := range pieces {
		if used[s] {
			continue
		}
		used[s] = true

		walk := []int{s}
		for {
			end := pieces[walk[len(walk)-1]].b
			if k := walkIndex(pieces, walk, end); k >= 0 {
				if len(walk)-k >= 3 {
					loop := make(orb.Ring, 0, len(walk)-k)
					for _, i := range walk[k:] {
						loop = append(loop, pieces[i].a)
					}
					loops = append(loops, loop)
				}
				break
			}

			next := nextPiece(pieces, used, walk[len(walk)-1])
			if next < 0 {
				break
			}
			used[next] = true
			walk = append(walk, next)
		}
	}
	return loops
}

// walkIndex returns the position in walk of the piece starting at p, or -1.
func walkIndex(pieces []offsetPiece, walk []int, p orb.Point) int {
	for k, i := range walk {
		if near(pieces[i].a, p) {
			return k
		}
	}
	return -1
}

func nextPiece(pieces []offsetPiece, used []bool, cur int) int {
	in := sub(pieces[cur].b, pieces[cur].a)
	best, bestTurn := -1, math.Inf(-1)
	for i, p := range pieces {
		if used[i] || !near(p.a, pieces[cur].b) {
			continue
		}
		out := sub(p.b, p.a)
		turn := math.Atan2(cross(in, out), dot(in, out))
		if turn > bestTurn {
			best, bestTurn = i, turn
		}
	}
	return best
}

func near(a, b orb.Point) bool {
	return length(sub(a, b)) <= chainEps
}
