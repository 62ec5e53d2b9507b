package bv

import "github.com/golang/geo/r3"

// Kind enumerates the supported bounding-volume kinds.
type Kind int

const (
	// KindOBB is an oriented bounding box.
	KindOBB Kind = iota
	// KindRSS is a rectangle swept sphere.
	KindRSS
	// KindKDOP18 is a discrete oriented polytope with 18 support planes.
	KindKDOP18
	// KindOBBRSS pairs an oriented box (for overlap tests) with a rectangle
	// swept sphere (for distance bounds).
	KindOBBRSS
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindOBB:
		return "OBB"
	case KindRSS:
		return "RSS"
	case KindKDOP18:
		return "KDOP18"
	case KindOBBRSS:
		return "OBBRSS"
	default:
		return "unknown"
	}
}

// Volume is a closed tagged variant holding one fitted volume of each shape a
// kind may need; which members are populated is determined by the owning
// model's kind (OBBRSS populates both the box and the swept rectangle).
type Volume struct {
	OBB  OBB
	RSS  RSS
	KDOP KDOP18
}

// Fit bounds the given points with the volume shapes the kind requires.
func Fit(kind Kind, pts []r3.Vector) Volume {
	var v Volume
	switch kind {
	case KindOBB:
		v.OBB = FitOBB(pts)
	case KindRSS:
		v.RSS = FitRSS(pts)
	case KindKDOP18:
		v.KDOP = FitKDOP18(pts)
	case KindOBBRSS:
		v.OBB = FitOBB(pts)
		v.RSS = FitRSS(pts)
	}
	return v
}

// BoundingSphere returns a sphere enclosing the volume for the given kind,
// used by motion bounds during conservative advancement.
func (v Volume) BoundingSphere(kind Kind) (r3.Vector, float64) {
	switch kind {
	case KindRSS, KindOBBRSS:
		return v.RSS.BoundingSphere()
	case KindKDOP18:
		return v.KDOP.BoundingSphere()
	default:
		return v.OBB.BoundingSphere()
	}
}
