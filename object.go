package marlon

// This file centralizes per-object-kind dispatch so that group.go, color.go,
// solve.go, and world.go can operate on an objectRef without re-deriving
// which arena it belongs to. Grounded on the tagged-handle pattern ("tree
// leaves carry a tagged handle enum, not an owning pointer") generalized to
// every place the engine needs to treat a particle and a rigid body
// uniformly.

func (w *World) isAwake(ref objectRef) bool {
	switch ref.kind {
	case objectKindParticle:
		return w.particles.get(ref.index).awake
	case objectKindRigidBody:
		return w.rigidBodies.get(ref.index).awake
	default:
		return true // static bodies are always "awake" in the sense of never sleeping
	}
}

func (w *World) wakingMotionOf(ref objectRef) float32 {
	switch ref.kind {
	case objectKindParticle:
		return w.particles.get(ref.index).wakingMotion
	case objectKindRigidBody:
		return w.rigidBodies.get(ref.index).wakingMotion
	default:
		return 0
	}
}

// sleepObject zeros velocity/angular velocity and clears awake.
func (w *World) sleepObject(ref objectRef) {
	switch ref.kind {
	case objectKindParticle:
		d := w.particles.get(ref.index)
		d.velocity = Vec3{}
		d.awake = false
	case objectKindRigidBody:
		d := w.rigidBodies.get(ref.index)
		d.velocity = Vec3{}
		d.angularVelocity = Vec3{}
		d.awake = false
	}
}

// wakeObject sets awake and reinitializes the waking-motion EMA rather than
// inheriting its pre-sleep history.
func (w *World) wakeObject(ref objectRef) {
	switch ref.kind {
	case objectKindParticle:
		d := w.particles.get(ref.index)
		d.awake = true
		d.wakingMotion = wakingMotionInitializer
	case objectKindRigidBody:
		d := w.rigidBodies.get(ref.index)
		d.awake = true
		d.wakingMotion = wakingMotionInitializer
	}
}

func (w *World) pairSlice(ref objectRef) []uint32 {
	switch ref.kind {
	case objectKindParticle:
		d := w.particles.get(ref.index)
		return w.pairRefs[d.pairsBegin:d.pairsEnd]
	case objectKindRigidBody:
		d := w.rigidBodies.get(ref.index)
		return w.pairRefs[d.pairsBegin:d.pairsEnd]
	default:
		return nil
	}
}

func (w *World) position(ref objectRef) Vec3 {
	switch ref.kind {
	case objectKindParticle:
		return w.particles.get(ref.index).position
	case objectKindRigidBody:
		return w.rigidBodies.get(ref.index).position
	case objectKindStaticBody:
		return w.staticBodies.get(ref.index).transform.Translation
	}
	panic("unknown object kind")
}

func (w *World) velocityAt(ref objectRef, point Vec3) Vec3 {
	switch ref.kind {
	case objectKindParticle:
		return w.particles.get(ref.index).velocity
	case objectKindRigidBody:
		d := w.rigidBodies.get(ref.index)
		r := point.Sub(d.position)
		return d.velocity.Add(d.angularVelocity.Cross(r))
	default:
		return Vec3{}
	}
}

func (w *World) inverseMass(ref objectRef) float32 {
	switch ref.kind {
	case objectKindParticle:
		return w.particles.get(ref.index).inverseMass
	case objectKindRigidBody:
		return w.rigidBodies.get(ref.index).inverseMass
	default:
		return 0
	}
}

func (w *World) worldInverseInertiaOf(ref objectRef) Mat3 {
	if ref.kind != objectKindRigidBody {
		return Mat3{}
	}
	return w.rigidBodies.get(ref.index).worldInverseInertia()
}

func (w *World) materialOf(ref objectRef) Material {
	switch ref.kind {
	case objectKindParticle:
		return w.particles.get(ref.index).material
	case objectKindRigidBody:
		return w.rigidBodies.get(ref.index).material
	case objectKindStaticBody:
		return w.staticBodies.get(ref.index).material
	}
	panic("unknown object kind")
}

// shapeTransform returns the shape and world transform for a rigid or
// static body. Particles have no shape; callers must not call this for a
// particle ref.
func (w *World) shapeTransform(ref objectRef) (Shape, Mat3x4) {
	switch ref.kind {
	case objectKindRigidBody:
		d := w.rigidBodies.get(ref.index)
		return d.shape, d.transform()
	case objectKindStaticBody:
		d := w.staticBodies.get(ref.index)
		return d.shape, d.transform
	}
	panic("shapeTransform called on a particle ref")
}

// applyPositionCorrection moves ref by magnitude*invMass along n and
// rotates it by invInertia*(r x (magnitude*n)): one endpoint of a
// constraint is called with +lambda and the other with -lambda so the two
// corrections are equal and opposite.
func (w *World) applyPositionCorrection(ref objectRef, r Vec3, n Vec3, magnitude float32, invMass float32, invInertia Mat3) {
	switch ref.kind {
	case objectKindParticle:
		d := w.particles.get(ref.index)
		d.position = d.position.Add(n.Scale(magnitude * invMass))
	case objectKindRigidBody:
		d := w.rigidBodies.get(ref.index)
		d.position = d.position.Add(n.Scale(magnitude * invMass))
		angularCorrection := invInertia.MulVec3(r.Cross(n.Scale(magnitude)))
		d.orientation = d.orientation.Add(quatDerivative(angularCorrection, d.orientation)).Normalized()
	}
}

// quatDerivative builds the (0, 0.5*omega)*q term used both for integration
// and for positional orientation corrections, where omega plays the role of
// an instantaneous angular displacement in the latter case.
func quatDerivative(omega Vec3, q Quat) Quat {
	dq := Quat{V: omega.Scale(0.5)}
	return dq.Mul(q)
}

func (q Quat) Add(other Quat) Quat {
	return Quat{W: q.W + other.W, V: q.V.Add(other.V)}
}

// applyVelocityChange applies a linear velocity change of deltaV and, for
// rigid bodies, the corresponding angular velocity change from a contact
// point offset r.
func (w *World) applyVelocityChange(ref objectRef, r Vec3, impulseDirection Vec3, magnitude float32, invMass float32, invInertia Mat3) {
	switch ref.kind {
	case objectKindParticle:
		d := w.particles.get(ref.index)
		d.velocity = d.velocity.Add(impulseDirection.Scale(magnitude * invMass))
	case objectKindRigidBody:
		d := w.rigidBodies.get(ref.index)
		d.velocity = d.velocity.Add(impulseDirection.Scale(magnitude * invMass))
		d.angularVelocity = d.angularVelocity.Add(invInertia.MulVec3(r.Cross(impulseDirection.Scale(magnitude))))
	}
}
