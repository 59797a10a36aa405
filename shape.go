package marlon

import "github.com/chewxy/math32"

// ShapeKind tags the variant held by a Shape. Closed sum type:
// "function-pointer vtables are unnecessary and harmful to cache behavior."
type ShapeKind uint8

const (
	ShapeKindBall ShapeKind = iota
	ShapeKindBox
)

// Shape is a tagged union of the two geometric primitives this module
// specifies. Extending it means adding a ShapeKind value
// and a case in each of bounds/particleContact/shapeContact below.
type Shape struct {
	Kind ShapeKind

	// Radius is meaningful when Kind == ShapeKindBall.
	Radius float32

	// HalfExtent is meaningful when Kind == ShapeKindBox.
	HalfExtent Vec3
}

func NewBallShape(radius float32) Shape {
	return Shape{Kind: ShapeKindBall, Radius: radius}
}

func NewBoxShape(halfExtent Vec3) Shape {
	return Shape{Kind: ShapeKindBox, HalfExtent: halfExtent}
}

// Bounds returns the world-space AABB of s under transform,
// Grounded on original_source/src/physics/shape.h's bounds(Ball, ...) and
// bounds(Box, transform) overloads.
func (s Shape) Bounds(transform Mat3x4) AABB {
	switch s.Kind {
	case ShapeKindBall:
		r := Vec3{s.Radius, s.Radius, s.Radius}
		center := transform.Translation
		return AABB{Lower: center.Sub(r), Upper: center.Add(r)}
	case ShapeKindBox:
		var lower, upper Vec3
		first := true
		he := s.HalfExtent
		for _, sx := range [2]float32{-1, 1} {
			for _, sy := range [2]float32{-1, 1} {
				for _, sz := range [2]float32{-1, 1} {
					corner := transform.Apply(Vec3{sx * he.X, sy * he.Y, sz * he.Z})
					if first {
						lower, upper = corner, corner
						first = false
					} else {
						lower = minVec3(lower, corner)
						upper = maxVec3(upper, corner)
					}
				}
			}
		}
		return AABB{Lower: lower, Upper: upper}
	default:
		panic("unknown shape kind")
	}
}

// contactGeometry is a positionless-or-positionful contact result. HasPoint
// distinguishes particle-shape contacts (positionless) from
// shape-shape contacts (always positionful).
type contactGeometry struct {
	Found      bool
	Normal     Vec3
	Separation float32
	HasPoint   bool
	Point      Vec3
}

// particleContact implements the particle-ball and particle-box
// contact formulas. particlePosition and particleRadius are in world
// space; shape/transform describe the other side.
func particleContact(particlePosition Vec3, particleRadius float32, shape Shape, transform Mat3x4) contactGeometry {
	switch shape.Kind {
	case ShapeKindBall:
		return particleBallContact(particlePosition, particleRadius, transform.Translation, shape.Radius)
	case ShapeKindBox:
		return particleBoxContact(particlePosition, particleRadius, shape.HalfExtent, transform)
	default:
		panic("unknown shape kind")
	}
}

// particleBallContact: d = p - c, contact iff d^2 <= (rp+rb)^2.
func particleBallContact(p Vec3, rp float32, c Vec3, rb float32) contactGeometry {
	d := p.Sub(c)
	dSquared := d.LengthSquared()
	sumRadii := rp + rb
	if dSquared > sumRadii*sumRadii {
		return contactGeometry{}
	}
	normal := d.Normalized(unitX)
	dist := math32.Sqrt(dSquared)
	return contactGeometry{
		Found:      true,
		Normal:     normal,
		Separation: dist - sumRadii,
	}
}

// particleBoxContact implements the box-local clamp-and-classify algorithm,
// grounded on shape.h's find_particle_contact(Box, ...): six
// face distances/normals for the inside case, a normalized local
// displacement for the near-surface case.
func particleBoxContact(p Vec3, rp float32, halfExtent Vec3, transform Mat3x4) contactGeometry {
	inverse := transform.Inverse()
	pLocal := inverse.Apply(p)

	q := Vec3{
		clampf(pLocal.X, -halfExtent.X, halfExtent.X),
		clampf(pLocal.Y, -halfExtent.Y, halfExtent.Y),
		clampf(pLocal.Z, -halfExtent.Z, halfExtent.Z),
	}
	d := pLocal.Sub(q)
	dSquared := d.LengthSquared()

	if dSquared == 0 {
		// Strictly inside: pick the nearest face.
		faceDistances := [6]float32{
			halfExtent.X - pLocal.X, pLocal.X + halfExtent.X,
			halfExtent.Y - pLocal.Y, pLocal.Y + halfExtent.Y,
			halfExtent.Z - pLocal.Z, pLocal.Z + halfExtent.Z,
		}
		faceNormalsLocal := [6]Vec3{
			{1, 0, 0}, {-1, 0, 0},
			{0, 1, 0}, {0, -1, 0},
			{0, 0, 1}, {0, 0, -1},
		}
		nearest := 0
		for i := 1; i < 6; i++ {
			if faceDistances[i] < faceDistances[nearest] {
				nearest = i
			}
		}
		normal := transform.ApplyVector(faceNormalsLocal[nearest])
		return contactGeometry{
			Found:      true,
			Normal:     normal,
			Separation: -faceDistances[nearest] - rp,
		}
	}

	if dSquared <= rp*rp {
		normalLocal := d.Scale(1 / math32.Sqrt(dSquared))
		normal := transform.ApplyVector(normalLocal).Normalized(unitX)
		return contactGeometry{
			Found:      true,
			Normal:     normal,
			Separation: math32.Sqrt(dSquared) - rp,
		}
	}

	return contactGeometry{}
}

// shapeContact computes a positionful contact between two rigid shapes.
// Used for rigid-rigid neighbor pairs.
func shapeContact(shapeA Shape, transformA Mat3x4, shapeB Shape, transformB Mat3x4) contactGeometry {
	switch {
	case shapeA.Kind == ShapeKindBall && shapeB.Kind == ShapeKindBall:
		return ballBallContact(transformA.Translation, shapeA.Radius, transformB.Translation, shapeB.Radius)
	case shapeA.Kind == ShapeKindBall && shapeB.Kind == ShapeKindBox:
		g := particleBoxContact(transformA.Translation, shapeA.Radius, shapeB.HalfExtent, transformB)
		return attachBallBoxPoint(g, transformA.Translation, shapeA.Radius)
	case shapeA.Kind == ShapeKindBox && shapeB.Kind == ShapeKindBall:
		g := particleBoxContact(transformB.Translation, shapeB.Radius, shapeA.HalfExtent, transformA)
		g = attachBallBoxPoint(g, transformB.Translation, shapeB.Radius)
		return flipContact(g)
	case shapeA.Kind == ShapeKindBox && shapeB.Kind == ShapeKindBox:
		return boxBoxContact(shapeA.HalfExtent, transformA, shapeB.HalfExtent, transformB)
	default:
		panic("unknown shape kind combination")
	}
}

func ballBallContact(cA Vec3, rA float32, cB Vec3, rB float32) contactGeometry {
	g := particleBallContact(cA, rA, cB, rB)
	if !g.Found {
		return g
	}
	g.HasPoint = true
	// Representative point: surface of A along the normal toward B.
	g.Point = cA.Sub(g.Normal.Scale(rA))
	return g
}

// attachBallBoxPoint turns the positionless particle-box result into a
// positionful one by placing the contact point on the ball's surface along
// the contact normal, consistent with relative_position[i] = point -
// body_position[i].
func attachBallBoxPoint(g contactGeometry, ballCenter Vec3, ballRadius float32) contactGeometry {
	if !g.Found {
		return g
	}
	g.HasPoint = true
	g.Point = ballCenter.Add(g.Normal.Scale(ballRadius))
	return g
}

func flipContact(g contactGeometry) contactGeometry {
	if !g.Found {
		return g
	}
	g.Normal = g.Normal.Negate()
	return g
}

// boxBoxContact resolves the box-box contact documented open question with a
// face-only Separating Axis Test over the six face normals of both boxes
// (no edge-cross axes), grounded on Box2D's 2D
// B2FindMaxSeparation/B2FindIncidentEdge (CollisionB2CollidePolygon.go),
// generalized from 2D polygon edges to 3D box faces. The axis of least
// penetration selects a reference face; the deepest vertex of the other box
// along that axis is returned as the single representative contact point.
// The returned normal points from box B toward box A.
func boxBoxContact(halfA Vec3, transformA Mat3x4, halfB Vec3, transformB Mat3x4) contactGeometry {
	rA := transformA.Rotation
	rB := transformB.Rotation
	centerA := transformA.Translation
	centerB := transformB.Translation
	centerDelta := centerB.Sub(centerA)

	type axisCandidate struct {
		axis       Vec3 // world-space, outward from the box that owns it
		separation float32
		fromA      bool
	}

	axesA := [3]Vec3{rA.Col0, rA.Col1, rA.Col2}
	axesB := [3]Vec3{rB.Col0, rB.Col1, rB.Col2}
	halvesA := [3]float32{halfA.X, halfA.Y, halfA.Z}
	halvesB := [3]float32{halfB.X, halfB.Y, halfB.Z}

	best := axisCandidate{separation: -math32.MaxFloat32}

	for i := 0; i < 3; i++ {
		n := axesA[i]
		if n.Dot(centerDelta) < 0 {
			n = n.Negate()
		}
		projA := halvesA[i]
		projB := projectHalfExtent(n, axesB, halvesB)
		sep := n.Dot(centerDelta) - projA - projB
		if sep > best.separation {
			best = axisCandidate{axis: n, separation: sep, fromA: true}
		}
	}
	for i := 0; i < 3; i++ {
		n := axesB[i]
		if n.Dot(centerDelta) < 0 {
			n = n.Negate()
		}
		projB := halvesB[i]
		projA := projectHalfExtent(n, axesA, halvesA)
		sep := n.Dot(centerDelta) - projB - projA
		if sep > best.separation {
			best = axisCandidate{axis: n.Negate(), separation: sep, fromA: false}
		}
	}

	if best.separation > 0 {
		return contactGeometry{}
	}

	var point Vec3
	var normal Vec3
	if best.fromA {
		normal = best.axis.Negate()
		point = deepestVertex(centerB, axesB, halvesB, best.axis)
	} else {
		normal = best.axis
		point = deepestVertex(centerA, axesA, halvesA, normal)
	}

	return contactGeometry{
		Found:      true,
		Normal:     normal,
		Separation: best.separation,
		HasPoint:   true,
		Point:      point,
	}
}

func projectHalfExtent(axis Vec3, boxAxes [3]Vec3, halfExtent [3]float32) float32 {
	var total float32
	for i := 0; i < 3; i++ {
		total += math32.Abs(axis.Dot(boxAxes[i])) * halfExtent[i]
	}
	return total
}

// deepestVertex returns the vertex of a box (center, axes, halfExtent) that
// extends furthest along -direction, i.e. the vertex of that box deepest
// inside the other box along direction.
func deepestVertex(center Vec3, axes [3]Vec3, halfExtent [3]float32, direction Vec3) Vec3 {
	p := center
	for i := 0; i < 3; i++ {
		sign := float32(1)
		if axes[i].Dot(direction) > 0 {
			sign = -1
		}
		p = p.Add(axes[i].Scale(sign * halfExtent[i]))
	}
	return p
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
