package marlon

import "github.com/chewxy/math32"

// contact caches what the position solve discovers about a pair for the
// remainder of the substep: the velocity solve needs the same contact
// normal and moment arms, plus the pre-solve separating velocity for
// restitution, without recomputing shape geometry a second time.
type contact struct {
	valid                  bool
	normal                 Vec3
	relativePosition       [2]Vec3
	invMass                [2]float32
	invInertia             [2]Mat3
	lambdaNormal           float32
	preSolveNormalVelocity float32
}

// generalizedInverseMass computes w = sum_i (invMass_i + (r_i x axis) .
// invInertia_i . (r_i x axis)), the denominator shared by every PBD
// positional and velocity correction along axis.
func generalizedInverseMass(c *contact, axis Vec3) float32 {
	var w float32
	for i := 0; i < 2; i++ {
		w += c.invMass[i]
		angular := c.relativePosition[i].Cross(axis)
		w += angular.Dot(c.invInertia[i].MulVec3(angular))
	}
	return w
}

// contactPoint derives a single representative contact point from geometry,
// approximating a point on the first object's surface when the underlying
// routine reported no point (particle-vs-shape contacts carry no point
// since a particle has no extent to anchor one).
func contactPoint(geometry contactGeometry, positionA Vec3, radiusA float32) Vec3 {
	if geometry.HasPoint {
		return geometry.Point
	}
	return positionA.Sub(geometry.Normal.Scale(radiusA))
}

// computePairGeometry dispatches a neighbor pair to the right contact
// routine. The returned normal always points toward pair.objects[0] and away
// from pair.objects[1].
func (w *World) computePairGeometry(pair neighborPair) (contactGeometry, Vec3) {
	a, b := pair.objects[0], pair.objects[1]
	switch pair.kind {
	case pairKindParticleParticle:
		pa := w.particles.get(a.index)
		pb := w.particles.get(b.index)
		g := particleBallContact(pa.position, pa.radius, pb.position, pb.radius)
		return g, contactPoint(g, pa.position, pa.radius)
	case pairKindParticleRigid, pairKindParticleStatic:
		pa := w.particles.get(a.index)
		shape, transform := w.shapeTransform(b)
		g := particleContact(pa.position, pa.radius, shape, transform)
		return g, contactPoint(g, pa.position, pa.radius)
	case pairKindRigidRigid, pairKindRigidStatic:
		shapeA, transformA := w.shapeTransform(a)
		shapeB, transformB := w.shapeTransform(b)
		g := shapeContact(shapeA, transformA, shapeB, transformB)
		return g, contactPoint(g, transformA.Translation, 0)
	default:
		panic("unknown pair kind")
	}
}

// positionSolveChunk runs the positional normal and static-friction
// corrections for one chunk of same-colored pairs. Pairs in different
// chunks of the same color never touch a common object, so every chunk in
// the color can run concurrently without a data race.
func (w *World) positionSolveChunk(pairIndices []uint32, h float32) {
	for _, pairIndex := range pairIndices {
		pair := w.pairs[pairIndex]
		c := &w.contacts[pairIndex]
		geometry, point := w.computePairGeometry(pair)
		if !geometry.Found {
			c.valid = false
			continue
		}

		a, b := pair.objects[0], pair.objects[1]
		c.valid = true
		c.normal = geometry.Normal
		c.relativePosition[0] = point.Sub(w.position(a))
		c.relativePosition[1] = point.Sub(w.position(b))
		c.invMass[0] = w.inverseMass(a)
		c.invMass[1] = w.inverseMass(b)
		c.invInertia[0] = w.worldInverseInertiaOf(a)
		c.invInertia[1] = w.worldInverseInertiaOf(b)
		c.preSolveNormalVelocity = w.velocityAt(a, point).Sub(w.velocityAt(b, point)).Dot(c.normal)
		c.lambdaNormal = 0

		wn := generalizedInverseMass(c, c.normal)
		if wn > 0 && geometry.Separation < 0 {
			lambda := -geometry.Separation / wn
			c.lambdaNormal = lambda
			w.applyPositionCorrection(a, c.relativePosition[0], c.normal, lambda, c.invMass[0], c.invInertia[0])
			w.applyPositionCorrection(b, c.relativePosition[1], c.normal, -lambda, c.invMass[1], c.invInertia[1])
		}

		w.solveStaticFriction(pair, c, h)
	}
}

// solveStaticFriction implements the tangential position correction: the
// relative surface displacement accumulated this substep is undone
// outright if doing so stays inside the static-friction cone lambda_t <
// mu_s * lambda_n, otherwise left alone for the velocity pass's dynamic
// friction clamp to handle.
func (w *World) solveStaticFriction(pair neighborPair, c *contact, h float32) {
	if c.lambdaNormal <= 0 {
		return
	}
	a, b := pair.objects[0], pair.objects[1]
	point := w.position(a).Add(c.relativePosition[0])
	relativeVelocity := w.velocityAt(a, point).Sub(w.velocityAt(b, point))
	tangentialVelocity := relativeVelocity.Sub(c.normal.Scale(relativeVelocity.Dot(c.normal)))
	displacement := tangentialVelocity.Scale(h)
	displacementLength := displacement.Length()
	if displacementLength < epsilon {
		return
	}
	tangent := displacement.Scale(1 / displacementLength)

	wt := generalizedInverseMass(c, tangent)
	if wt <= 0 {
		return
	}
	lambdaTangent := displacementLength / wt

	material := meanMaterial(w.materialOf(a), w.materialOf(b))
	if lambdaTangent >= material.StaticFriction*c.lambdaNormal {
		return
	}

	w.applyPositionCorrection(a, c.relativePosition[0], tangent, -lambdaTangent, c.invMass[0], c.invInertia[0])
	w.applyPositionCorrection(b, c.relativePosition[1], tangent, lambdaTangent, c.invMass[1], c.invInertia[1])
}

// velocitySolveChunk applies restitution along the contact normal and the
// dynamic-friction clamp tangentially, using the contact cached by the
// position pass for the same substep.
func (w *World) velocitySolveChunk(pairIndices []uint32, h float32, gravityMagnitude float32) {
	for _, pairIndex := range pairIndices {
		c := &w.contacts[pairIndex]
		if !c.valid {
			continue
		}
		pair := w.pairs[pairIndex]
		a, b := pair.objects[0], pair.objects[1]
		point := w.position(a).Add(c.relativePosition[0])

		relativeVelocity := w.velocityAt(a, point).Sub(w.velocityAt(b, point))
		normalVelocity := relativeVelocity.Dot(c.normal)

		material := meanMaterial(w.materialOf(a), w.materialOf(b))
		restitution := material.Restitution
		if math32.Abs(c.preSolveNormalVelocity) <= 2*gravityMagnitude*h {
			restitution = 0
		}

		targetVelocity := -restitution * c.preSolveNormalVelocity
		deltaNormalVelocity := targetVelocity - normalVelocity
		wn := generalizedInverseMass(c, c.normal)
		if wn > 0 && deltaNormalVelocity > 0 {
			impulse := deltaNormalVelocity / wn
			w.applyVelocityChange(a, c.relativePosition[0], c.normal, impulse, c.invMass[0], c.invInertia[0])
			w.applyVelocityChange(b, c.relativePosition[1], c.normal, -impulse, c.invMass[1], c.invInertia[1])
		}

		w.solveDynamicFriction(pair, c, h)
	}
}

// solveDynamicFriction removes tangential relative velocity at the contact
// point, clamped to mu_d * lambda_n / h so friction never exceeds what the
// normal impulse accumulated this substep can support.
func (w *World) solveDynamicFriction(pair neighborPair, c *contact, h float32) {
	if c.lambdaNormal <= 0 {
		return
	}
	a, b := pair.objects[0], pair.objects[1]
	point := w.position(a).Add(c.relativePosition[0])
	relativeVelocity := w.velocityAt(a, point).Sub(w.velocityAt(b, point))
	tangentialVelocity := relativeVelocity.Sub(c.normal.Scale(relativeVelocity.Dot(c.normal)))
	speed := tangentialVelocity.Length()
	if speed < epsilon {
		return
	}
	tangent := tangentialVelocity.Scale(1 / speed)

	wt := generalizedInverseMass(c, tangent)
	if wt <= 0 {
		return
	}
	material := meanMaterial(w.materialOf(a), w.materialOf(b))
	maxImpulse := material.DynamicFriction * c.lambdaNormal / h
	impulse := speed / wt
	if impulse > maxImpulse {
		impulse = maxImpulse
	}

	w.applyVelocityChange(a, c.relativePosition[0], tangent, -impulse, c.invMass[0], c.invInertia[0])
	w.applyVelocityChange(b, c.relativePosition[1], tangent, impulse, c.invMass[1], c.invInertia[1])
}

// dispatchChunks splits a color's pair bucket into chunks of at most
// maxSolveChunkSize and runs solveOne on each chunk, fanning out to pool and
// waiting on a countdown latch before returning. This is the only place
// Simulate crosses into concurrent execution.
func (w *World) dispatchChunks(pairIndices []uint32, pool Pool, solveOne func(chunk []uint32)) {
	if len(pairIndices) == 0 {
		return
	}
	var latch countdownLatch
	chunkCount := 0
	for start := 0; start < len(pairIndices); start += maxSolveChunkSize {
		chunkCount++
		_ = start
	}
	latch.add(chunkCount)
	for start := 0; start < len(pairIndices); start += maxSolveChunkSize {
		end := start + maxSolveChunkSize
		if end > len(pairIndices) {
			end = len(pairIndices)
		}
		chunk := pairIndices[start:end]
		pool.Push(taskFunc(func(workerID int) {
			solveOne(chunk)
			latch.done()
		}))
	}
	latch.wait()
}
