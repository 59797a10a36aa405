package marlon

// WorldCreateInfo sizes every fixed-capacity pool a World owns. Every
// ceiling here is permanent: World never grows a pool past it, so every
// caller that expects Simulate to run without allocating must size these
// generously up front. Grounded on world.cpp's World_create_info.
type WorldCreateInfo struct {
	MaxParticles      int
	MaxRigidBodies    int
	MaxStaticBodies   int
	MaxNeighborPairs  int
	MaxNeighborGroups int

	GravitationalAcceleration Vec3
}

// World owns every particle, rigid body, static body, and the broadphase,
// pairing, grouping, coloring, and solving state needed to advance them.
// Grounded on world.cpp's World class; arrays that were three hand-written
// storage classes there are the shared arena[T] type here.
type World struct {
	particles    *arena[particleData]
	rigidBodies  *arena[rigidBodyData]
	staticBodies *arena[staticBodyData]

	tree *Tree

	pairs     []neighborPair
	pairCount int

	pairRefs []uint32

	groupObjects []objectRef
	groupPairs   []uint32
	groups       []group
	groupCount   int
	bfsQueue     indexQueue

	colorScratch bitset
	colorCounts  []uint32
	colorOffsets []uint32
	colorCursor  []uint32
	colorBuckets []uint32
	numColors    int

	contacts []contact

	gravity Vec3
}

// NewWorld allocates every pool described by info. All allocation happens
// here, once; nothing World does afterward grows any of these slices.
func NewWorld(info WorldCreateInfo) (*World, error) {
	if info.MaxParticles < 0 || info.MaxRigidBodies < 0 || info.MaxStaticBodies < 0 {
		return nil, ErrInvalidArgument
	}
	maxLeaves := info.MaxParticles + info.MaxRigidBodies + info.MaxStaticBodies
	maxDynamic := info.MaxParticles + info.MaxRigidBodies

	w := &World{
		particles:    newArena[particleData](info.MaxParticles),
		rigidBodies:  newArena[rigidBodyData](info.MaxRigidBodies),
		staticBodies: newArena[staticBodyData](info.MaxStaticBodies),

		tree: newTree(maxLeaves),

		pairs:    make([]neighborPair, info.MaxNeighborPairs),
		pairRefs: make([]uint32, 2*info.MaxNeighborPairs),

		groupObjects: make([]objectRef, maxDynamic),
		groupPairs:   make([]uint32, info.MaxNeighborPairs),
		groups:       make([]group, info.MaxNeighborGroups),
		bfsQueue:     newIndexQueue(maxDynamic),

		colorScratch: newBitset(maxColors),
		colorCounts:  make([]uint32, maxColors),
		colorOffsets: make([]uint32, maxColors+1),
		colorCursor:  make([]uint32, maxColors),
		colorBuckets: make([]uint32, info.MaxNeighborPairs),

		contacts: make([]contact, info.MaxNeighborPairs),

		gravity: info.GravitationalAcceleration,
	}
	return w, nil
}

// CreateParticle inserts a new particle into both the particle arena and the
// broadphase tree.
func (w *World) CreateParticle(info ParticleCreateInfo) (ParticleHandle, error) {
	if err := info.validate(); err != nil {
		return ParticleHandle{}, err
	}
	data := particleData{
		callback:     info.Callback,
		radius:       info.Radius,
		inverseMass:  1 / info.Mass,
		material:     info.Material,
		prevPosition: info.Position,
		position:     info.Position,
		velocity:     info.Velocity,
		wakingMotion: wakingMotionInitializer,
		awake:        true,
	}
	index, err := w.particles.create(data)
	if err != nil {
		return ParticleHandle{}, err
	}
	d := w.particles.get(index)
	box := AABB{Lower: info.Position, Upper: info.Position}.inflate(info.Radius)
	d.treeNode = w.tree.createLeaf(box, objectRef{kind: objectKindParticle, index: index})
	return ParticleHandle{index: index}, nil
}

func (w *World) DestroyParticle(handle ParticleHandle) {
	d := w.particles.get(handle.index)
	w.tree.destroyLeaf(d.treeNode)
	w.particles.destroy(handle.index)
}

// CreateRigidBody inserts a new rigid body into both the rigid-body arena
// and the broadphase tree.
func (w *World) CreateRigidBody(info RigidBodyCreateInfo) (RigidBodyHandle, error) {
	if err := info.validate(); err != nil {
		return RigidBodyHandle{}, err
	}
	orientation := info.Orientation.Normalized()
	data := rigidBodyData{
		callback:           info.Callback,
		shape:              info.Shape,
		inverseMass:        1 / info.Mass,
		bodyInverseInertia: info.BodyInverseInertia,
		material:           info.Material,
		prevPosition:       info.Position,
		position:           info.Position,
		velocity:           info.Velocity,
		prevOrientation:    orientation,
		orientation:        orientation,
		angularVelocity:    info.AngularVelocity,
		wakingMotion:       wakingMotionInitializer,
		awake:              true,
	}
	index, err := w.rigidBodies.create(data)
	if err != nil {
		return RigidBodyHandle{}, err
	}
	d := w.rigidBodies.get(index)
	box := info.Shape.Bounds(d.transform())
	d.treeNode = w.tree.createLeaf(box, objectRef{kind: objectKindRigidBody, index: index})
	return RigidBodyHandle{index: index}, nil
}

func (w *World) DestroyRigidBody(handle RigidBodyHandle) {
	d := w.rigidBodies.get(handle.index)
	w.tree.destroyLeaf(d.treeNode)
	w.rigidBodies.destroy(handle.index)
}

// CreateStaticBody inserts a new static body into both the static-body
// arena and the broadphase tree. Its leaf box is never revisited: static
// bodies never move.
func (w *World) CreateStaticBody(info StaticBodyCreateInfo) (StaticBodyHandle, error) {
	if err := info.validate(); err != nil {
		return StaticBodyHandle{}, err
	}
	orientation := info.Orientation.Normalized()
	transform := mat3x4FromQuat(orientation, info.Position)
	data := staticBodyData{
		shape:            info.Shape,
		material:         info.Material,
		orientation:      orientation,
		transform:        transform,
		inverseTransform: transform.Inverse(),
	}
	index, err := w.staticBodies.create(data)
	if err != nil {
		return StaticBodyHandle{}, err
	}
	d := w.staticBodies.get(index)
	box := info.Shape.Bounds(transform)
	d.treeNode = w.tree.createLeaf(box, objectRef{kind: objectKindStaticBody, index: index})
	return StaticBodyHandle{index: index}, nil
}

func (w *World) DestroyStaticBody(handle StaticBodyHandle) {
	d := w.staticBodies.get(handle.index)
	w.tree.destroyLeaf(d.treeNode)
	w.staticBodies.destroy(handle.index)
}

// ParticleIsAwake reports whether a particle is currently awake.
func (w *World) ParticleIsAwake(handle ParticleHandle) bool {
	return w.particles.get(handle.index).awake
}

// RigidBodyIsAwake reports whether a rigid body is currently awake.
func (w *World) RigidBodyIsAwake(handle RigidBodyHandle) bool {
	return w.rigidBodies.get(handle.index).awake
}

// ParticleWakingMotion returns the current waking-motion EMA for a particle.
func (w *World) ParticleWakingMotion(handle ParticleHandle) float32 {
	return w.particles.get(handle.index).wakingMotion
}

// RigidBodyWakingMotion returns the current waking-motion EMA for a rigid
// body.
func (w *World) RigidBodyWakingMotion(handle RigidBodyHandle) float32 {
	return w.rigidBodies.get(handle.index).wakingMotion
}

// ParticlePosition returns a particle's current world-space position.
func (w *World) ParticlePosition(handle ParticleHandle) Vec3 {
	return w.particles.get(handle.index).position
}

// RigidBodyPosition returns a rigid body's current world-space position.
func (w *World) RigidBodyPosition(handle RigidBodyHandle) Vec3 {
	return w.rigidBodies.get(handle.index).position
}

// StaticBodyPosition returns a static body's world-space position.
func (w *World) StaticBodyPosition(handle StaticBodyHandle) Vec3 {
	return w.staticBodies.get(handle.index).transform.Translation
}

// RigidBodyOrientation returns a rigid body's current orientation.
func (w *World) RigidBodyOrientation(handle RigidBodyHandle) Quat {
	return w.rigidBodies.get(handle.index).orientation
}

// StaticBodyOrientation returns a static body's orientation.
func (w *World) StaticBodyOrientation(handle StaticBodyHandle) Quat {
	return w.staticBodies.get(handle.index).orientation
}

// RigidBodyVelocity returns a rigid body's current linear velocity.
func (w *World) RigidBodyVelocity(handle RigidBodyHandle) Vec3 {
	return w.rigidBodies.get(handle.index).velocity
}

// ParticleVelocity returns a particle's current velocity.
func (w *World) ParticleVelocity(handle ParticleHandle) Vec3 {
	return w.particles.get(handle.index).velocity
}

// RigidBodyAngularVelocity returns a rigid body's current angular velocity.
func (w *World) RigidBodyAngularVelocity(handle RigidBodyHandle) Vec3 {
	return w.rigidBodies.get(handle.index).angularVelocity
}

// Simulate advances the world by dt, split into substepCount equal
// substeps, dispatching per-color parallel work to pool. Grounded on
// world.cpp's World::simulate: refresh broadphase bounds, find pairs once
// per frame, then integrate/solve repeatedly using the same pair set and
// coloring for every substep. A dt of 0 only fires the motion callbacks.
func (w *World) Simulate(dt float32, substepCount int, pool Pool) error {
	if substepCount <= 0 || dt < 0 {
		return ErrInvalidArgument
	}
	if dt == 0 {
		w.fireMotionCallbacks()
		return nil
	}
	h := dt / float32(substepCount)
	gravityMagnitude := w.gravity.Length()

	w.refreshBounds(dt, gravityMagnitude)
	if err := w.rebuildPairs(); err != nil {
		return err
	}
	w.clearMarks()
	if err := w.findNeighborGroups(); err != nil {
		return err
	}
	w.updateGroupAwakeStates()
	if err := w.colorAllGroups(); err != nil {
		return err
	}
	w.assignColorBuckets()

	damping := perSubstepDampingFactor(h)
	alpha := perSubstepWakingMotionSmoothingFactor(h)

	for s := 0; s < substepCount; s++ {
		w.integrate(h, damping)
		for c := 0; c < w.numColors; c++ {
			bucket := w.colorBucket(c)
			w.dispatchChunks(bucket, pool, func(chunk []uint32) {
				w.positionSolveChunk(chunk, h)
			})
		}
		w.deriveVelocities(h)
		for c := 0; c < w.numColors; c++ {
			bucket := w.colorBucket(c)
			w.dispatchChunks(bucket, pool, func(chunk []uint32) {
				w.velocitySolveChunk(chunk, h, gravityMagnitude)
			})
		}
		w.updateWakingMotion(alpha)
	}

	w.fireMotionCallbacks()
	return nil
}

// forEachActiveObject visits every dynamic object belonging to an active
// (currently-solved) neighbor group.
func (w *World) forEachActiveObject(f func(ref objectRef)) {
	for i := 0; i < w.groupCount; i++ {
		g := w.groups[i]
		if !g.active {
			continue
		}
		for _, ref := range w.objectsOf(g) {
			f(ref)
		}
	}
}

// integrate applies gravity and damping, then advances position/orientation
// by h, saving the pre-integration pose so deriveVelocities can recover the
// velocity a pure position correction implies.
func (w *World) integrate(h float32, damping float32) {
	w.forEachActiveObject(func(ref objectRef) {
		switch ref.kind {
		case objectKindParticle:
			d := w.particles.get(ref.index)
			d.prevPosition = d.position
			d.velocity = d.velocity.Add(w.gravity.Scale(h)).Scale(damping)
			d.position = d.position.Add(d.velocity.Scale(h))
		case objectKindRigidBody:
			d := w.rigidBodies.get(ref.index)
			d.prevPosition = d.position
			d.prevOrientation = d.orientation
			d.velocity = d.velocity.Add(w.gravity.Scale(h)).Scale(damping)
			d.position = d.position.Add(d.velocity.Scale(h))
			d.angularVelocity = d.angularVelocity.Scale(damping)
			d.orientation = d.orientation.Add(quatDerivative(d.angularVelocity.Scale(h), d.orientation)).Normalized()
		}
	})
}

// deriveVelocities recomputes velocity/angularVelocity from the pose delta
// that integration plus the positional solve produced this substep, the
// PBD convention of treating velocity as a derived quantity.
func (w *World) deriveVelocities(h float32) {
	invH := 1 / h
	w.forEachActiveObject(func(ref objectRef) {
		switch ref.kind {
		case objectKindParticle:
			d := w.particles.get(ref.index)
			d.velocity = d.position.Sub(d.prevPosition).Scale(invH)
		case objectKindRigidBody:
			d := w.rigidBodies.get(ref.index)
			d.velocity = d.position.Sub(d.prevPosition).Scale(invH)
			relative := d.orientation.Mul(d.prevOrientation.Conjugate())
			if relative.W < 0 {
				relative = Quat{W: -relative.W, V: relative.V.Negate()}
			}
			d.angularVelocity = relative.V.Scale(2 * invH)
		}
	})
}

// refreshBounds recomputes every dynamic leaf's safety-inflated AABB and
// moves it in the tree if needed. Static leaves are untouched:
// they were sized exactly once, at creation.
func (w *World) refreshBounds(dt, gravityMagnitude float32) {
	w.particles.forEach(func(_ uint32, d *particleData) {
		margin := safetyMargin(d.velocity.Length(), gravityMagnitude, dt)
		box := AABB{Lower: d.position, Upper: d.position}.inflate(d.radius + margin)
		w.tree.moveLeaf(d.treeNode, box)
	})
	w.rigidBodies.forEach(func(_ uint32, d *rigidBodyData) {
		margin := safetyMargin(d.velocity.Length(), gravityMagnitude, dt)
		box := d.shape.Bounds(d.transform()).inflate(margin)
		w.tree.moveLeaf(d.treeNode, box)
	})
}

// rebuildPairs re-enumerates every overlapping leaf pair into w.pairs, then
// rebuilds the per-object back-reference ranges into w.pairRefs with a
// two-phase count-then-fill pass mirroring assignColorBuckets.
func (w *World) rebuildPairs() error {
	w.pairCount = 0
	var err error
	w.tree.forEachOverlappingLeafPair(func(a, b objectRef) {
		if err != nil {
			return
		}
		if !a.isDynamic() && !b.isDynamic() {
			return
		}
		pair, ok := makeNeighborPair(a, b)
		if !ok {
			return
		}
		if w.pairCount >= len(w.pairs) {
			err = ErrCapacityExceeded
			return
		}
		w.pairs[w.pairCount] = pair
		w.pairCount++
	})
	if err != nil {
		return err
	}

	w.particles.forEach(func(_ uint32, d *particleData) { d.pairsBegin, d.pairsEnd = 0, 0; d.neighborCount = 0 })
	w.rigidBodies.forEach(func(_ uint32, d *rigidBodyData) { d.pairsBegin, d.pairsEnd = 0, 0; d.neighborCount = 0 })

	for i := 0; i < w.pairCount; i++ {
		pair := w.pairs[i]
		for _, ref := range pair.objects {
			if !ref.isDynamic() {
				continue
			}
			w.incrementDegree(ref)
		}
	}

	var cursor uint32
	w.particles.forEach(func(_ uint32, d *particleData) {
		degree := d.pairsEnd
		d.pairsBegin = cursor
		d.pairsEnd = cursor
		cursor += degree
	})
	w.rigidBodies.forEach(func(_ uint32, d *rigidBodyData) {
		degree := d.pairsEnd
		d.pairsBegin = cursor
		d.pairsEnd = cursor
		cursor += degree
	})

	for i := 0; i < w.pairCount; i++ {
		pair := &w.pairs[i]
		pair.color = colorUnmarked
		for _, ref := range pair.objects {
			if !ref.isDynamic() {
				continue
			}
			w.appendPairRef(ref, uint32(i))
		}
	}
	return nil
}

// incrementDegree temporarily uses pairsEnd as a running degree counter
// during the count phase of rebuildPairs; it is reset to a real range
// boundary by the prefix-sum pass immediately afterward.
func (w *World) incrementDegree(ref objectRef) {
	switch ref.kind {
	case objectKindParticle:
		w.particles.get(ref.index).pairsEnd++
	case objectKindRigidBody:
		w.rigidBodies.get(ref.index).pairsEnd++
	}
}

// appendPairRef writes pairIndex into ref's back-reference range at its
// current fill position (pairsEnd, which the fill phase advances one slot
// at a time from the range's begin).
func (w *World) appendPairRef(ref objectRef, pairIndex uint32) {
	switch ref.kind {
	case objectKindParticle:
		d := w.particles.get(ref.index)
		w.pairRefs[d.pairsEnd] = pairIndex
		d.pairsEnd++
		d.neighborCount++
	case objectKindRigidBody:
		d := w.rigidBodies.get(ref.index)
		w.pairRefs[d.pairsEnd] = pairIndex
		d.pairsEnd++
		d.neighborCount++
	}
}

// fireMotionCallbacks invokes every live object's motion callback, in arena
// order, once per Simulate call.
func (w *World) fireMotionCallbacks() {
	w.particles.forEach(func(index uint32, d *particleData) {
		if d.callback != nil {
			d.callback.OnParticleMotion(w, ParticleHandle{index: index})
		}
	})
	w.rigidBodies.forEach(func(index uint32, d *rigidBodyData) {
		if d.callback != nil {
			d.callback.OnRigidBodyMotion(w, RigidBodyHandle{index: index})
		}
	})
}
