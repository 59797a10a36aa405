package marlon

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Lower, Upper Vec3
}

func (b AABB) Center() Vec3 {
	return b.Lower.Add(b.Upper).Scale(0.5)
}

func (b AABB) Extents() Vec3 {
	return b.Upper.Sub(b.Lower).Scale(0.5)
}

// surfaceArea is the 3D analogue of Box2D's 2D GetPerimeter, used as
// the SAH cost metric for tree insertion; grounded on
// CollisionB2DynamicTree.go's InsertLeaf/Balance, which cost nodes by
// B2AABB.GetPerimeter in 2D.
func (b AABB) surfaceArea() float32 {
	d := b.Upper.Sub(b.Lower)
	return 2 * (d.X*d.Y + d.Y*d.Z + d.Z*d.X)
}

func (b AABB) contains(other AABB) bool {
	return b.Lower.X <= other.Lower.X && b.Lower.Y <= other.Lower.Y && b.Lower.Z <= other.Lower.Z &&
		other.Upper.X <= b.Upper.X && other.Upper.Y <= b.Upper.Y && other.Upper.Z <= b.Upper.Z
}

func unionAABB(a, b AABB) AABB {
	return AABB{Lower: minVec3(a.Lower, b.Lower), Upper: maxVec3(a.Upper, b.Upper)}
}

func overlapAABB(a, b AABB) bool {
	if a.Upper.X < b.Lower.X || a.Lower.X > b.Upper.X {
		return false
	}
	if a.Upper.Y < b.Lower.Y || a.Lower.Y > b.Upper.Y {
		return false
	}
	if a.Upper.Z < b.Lower.Z || a.Lower.Z > b.Upper.Z {
		return false
	}
	return true
}

// inflate grows b isotropically by margin on every side; the caller computes
// the per-frame safety inflation and passes it in here.
func (b AABB) inflate(margin float32) AABB {
	r := Vec3{margin, margin, margin}
	return AABB{Lower: b.Lower.Sub(r), Upper: b.Upper.Add(r)}
}

// safetyMargin computes the per-frame isotropic inflation for a dynamic
// leaf: constant_term + velocity_factor*|v|*dt +
// gravity_factor*|g|*dt^2.
func safetyMargin(speed, gravityMagnitude, dt float32) float32 {
	return aabbSafetyConstantTerm +
		aabbSafetyVelocityFactor*speed*dt +
		aabbSafetyGravityFactor*gravityMagnitude*dt*dt
}
