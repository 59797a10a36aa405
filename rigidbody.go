package marlon

// RigidBodyHandle is a stable 32-bit index into the rigid-body arena.
type RigidBodyHandle struct {
	index uint32
}

// rigidBodyData is the per-rigid-body state. Grounded on
// original_source/src/physics/world.cpp's Rigid_body_data.
type rigidBodyData struct {
	treeNode            int32
	pairsBegin          uint32
	pairsEnd            uint32
	callback            RigidBodyMotionCallback
	shape               Shape
	inverseMass         float32
	bodyInverseInertia  Mat3
	material            Material
	prevPosition        Vec3
	position            Vec3
	velocity            Vec3
	prevOrientation     Quat
	orientation         Quat
	angularVelocity     Vec3
	wakingMotion        float32
	neighborCount       uint16
	marked              bool
	awake               bool
}

// RigidBodyMotionCallback is invoked once per live rigid body after every
// Simulate call, in arena order.
type RigidBodyMotionCallback interface {
	OnRigidBodyMotion(world *World, handle RigidBodyHandle)
}

// RigidBodyCreateInfo describes a new rigid body.
type RigidBodyCreateInfo struct {
	Shape              Shape
	Mass               float32
	BodyInverseInertia Mat3
	Position           Vec3
	Velocity           Vec3
	Orientation        Quat
	AngularVelocity    Vec3
	Material           Material
	Callback           RigidBodyMotionCallback
}

func (info RigidBodyCreateInfo) validate() error {
	if info.Mass <= 0 {
		return ErrInvalidArgument
	}
	lengthSquared := info.Orientation.LengthSquared()
	if lengthSquared < 1-1e-3 || lengthSquared > 1+1e-3 {
		return ErrInvalidArgument
	}
	return nil
}

func (d *rigidBodyData) transform() Mat3x4 {
	return mat3x4FromQuat(d.orientation, d.position)
}

func (d *rigidBodyData) worldInverseInertia() Mat3 {
	return worldInverseInertia(d.bodyInverseInertia, d.orientation.ToMat3())
}
