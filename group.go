package marlon

// group is a connected component of the dynamic neighbor-pair graph,
// treated atomically for sleep/wake and, when active, for coloring.
// Grounded on original_source/src/physics/world.cpp's
// Neighbor_group_storage::Group.
type group struct {
	objectsBegin, objectsEnd uint32
	pairsBegin, pairsEnd     uint32
	active                   bool
}

func (w *World) objectsOf(g group) []objectRef {
	return w.groupObjects[g.objectsBegin:g.objectsEnd]
}

func (w *World) pairsOf(g group) []uint32 {
	return w.groupPairs[g.pairsBegin:g.pairsEnd]
}

// findNeighborGroups floods the dynamic subgraph into connected components.
// Every dynamic object ends up in exactly one component,
// whether or not it has any neighbor pairs (an isolated object is its own
// singleton component).
func (w *World) findNeighborGroups() error {
	w.groupCount = 0
	var objectsCursor, pairsCursor uint32

	visit := func(start objectRef) error {
		objectsBegin := objectsCursor
		pairsBegin := pairsCursor

		w.groupObjects[objectsCursor] = start
		objectsCursor++
		w.markObject(start)
		w.bfsQueue.reset()
		w.bfsQueue.push(encodeRef(start))

		for !w.bfsQueue.empty() {
			cur := decodeRef(w.bfsQueue.pop())
			for _, pairIndex := range w.pairSlice(cur) {
				pair := &w.pairs[pairIndex]
				if pair.color != colorUnmarked {
					continue
				}
				pair.color = colorMarked
				if pairsCursor >= uint32(len(w.groupPairs)) {
					return ErrCapacityExceeded
				}
				w.groupPairs[pairsCursor] = pairIndex
				pairsCursor++

				other := otherEndpoint(*pair, cur)
				if other.isDynamic() && !w.objectMarked(other) {
					w.markObject(other)
					if objectsCursor >= uint32(len(w.groupObjects)) {
						return ErrCapacityExceeded
					}
					w.groupObjects[objectsCursor] = other
					objectsCursor++
					w.bfsQueue.push(encodeRef(other))
				}
			}
		}

		if int(w.groupCount) >= len(w.groups) {
			return ErrCapacityExceeded
		}
		w.groups[w.groupCount] = group{
			objectsBegin: objectsBegin,
			objectsEnd:   objectsCursor,
			pairsBegin:   pairsBegin,
			pairsEnd:     pairsCursor,
		}
		w.groupCount++
		return nil
	}

	var visitErr error
	w.particles.forEach(func(index uint32, d *particleData) {
		if visitErr != nil {
			return
		}
		if d.marked {
			return
		}
		visitErr = visit(objectRef{kind: objectKindParticle, index: index})
	})
	if visitErr != nil {
		return visitErr
	}
	w.rigidBodies.forEach(func(index uint32, d *rigidBodyData) {
		if visitErr != nil {
			return
		}
		if d.marked {
			return
		}
		visitErr = visit(objectRef{kind: objectKindRigidBody, index: index})
	})
	return visitErr
}

func (w *World) markObject(ref objectRef) {
	switch ref.kind {
	case objectKindParticle:
		w.particles.get(ref.index).marked = true
	case objectKindRigidBody:
		w.rigidBodies.get(ref.index).marked = true
	}
}

func (w *World) objectMarked(ref objectRef) bool {
	switch ref.kind {
	case objectKindParticle:
		return w.particles.get(ref.index).marked
	case objectKindRigidBody:
		return w.rigidBodies.get(ref.index).marked
	default:
		return false
	}
}

func (w *World) clearMarks() {
	w.particles.forEach(func(_ uint32, d *particleData) { d.marked = false })
	w.rigidBodies.forEach(func(_ uint32, d *rigidBodyData) { d.marked = false })
}

func otherEndpoint(pair neighborPair, self objectRef) objectRef {
	if pair.objects[0] == self {
		return pair.objects[1]
	}
	return pair.objects[0]
}

// encodeRef/decodeRef pack an objectRef into a uint32 for the fixed-capacity
// BFS queue (indexQueue), which holds plain uint32 values rather than
// objectRef.
func encodeRef(ref objectRef) uint32 {
	return uint32(ref.kind)<<30 | ref.index
}

func decodeRef(v uint32) objectRef {
	return objectRef{kind: objectKind(v >> 30), index: v & 0x3FFFFFFF}
}

// updateGroupAwakeStates applies the per-component wake/sleep decision.
// Grounded on world.cpp's update_neighbor_group_awake_states.
func (w *World) updateGroupAwakeStates() {
	for i := 0; i < w.groupCount; i++ {
		g := &w.groups[i]
		containsAwake := false
		sleepable := true
		for _, ref := range w.objectsOf(*g) {
			if w.isAwake(ref) {
				containsAwake = true
				if w.wakingMotionOf(ref) > wakingMotionEpsilon {
					sleepable = false
				}
			}
		}

		switch {
		case !containsAwake:
			g.active = false
		case sleepable:
			for _, ref := range w.objectsOf(*g) {
				if w.isAwake(ref) {
					w.sleepObject(ref)
				}
			}
			g.active = false
		default:
			for _, ref := range w.objectsOf(*g) {
				if !w.isAwake(ref) {
					w.wakeObject(ref)
				}
			}
			g.active = true
		}
	}
}

// updateWakingMotion advances the per-substep EMA for every awake dynamic
// object in active components.
func (w *World) updateWakingMotion(alpha float32) {
	for i := 0; i < w.groupCount; i++ {
		g := w.groups[i]
		if !g.active {
			continue
		}
		for _, ref := range w.objectsOf(g) {
			switch ref.kind {
			case objectKindParticle:
				d := w.particles.get(ref.index)
				speedSquared := d.velocity.LengthSquared()
				d.wakingMotion = minf(wakingMotionLimit, (1-alpha)*d.wakingMotion+alpha*speedSquared)
			case objectKindRigidBody:
				d := w.rigidBodies.get(ref.index)
				speedSquared := d.velocity.LengthSquared() + d.angularVelocity.LengthSquared()
				d.wakingMotion = minf(wakingMotionLimit, (1-alpha)*d.wakingMotion+alpha*speedSquared)
			}
		}
	}
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
