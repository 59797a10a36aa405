package marlon

// pairKind tags which two arenas a NeighborPair's endpoints come from:
// PP, PR, PS, RR, RS where P=particle, R=rigid, S=static.
type pairKind uint8

const (
	pairKindParticleParticle pairKind = iota
	pairKindParticleRigid
	pairKindParticleStatic
	pairKindRigidRigid
	pairKindRigidStatic
)

// neighborPair is a per-frame broadphase-reported potential contact.
// Grounded on original_source/src/physics/world.cpp's Neighbor_pair struct.
type neighborPair struct {
	objects [2]objectRef
	kind    pairKind
	color   uint16
}

// objectRank orders the three object kinds for the canonical ordering rule
// "particle < rigid < static".
func objectRank(k objectKind) int {
	switch k {
	case objectKindParticle:
		return 0
	case objectKindRigidBody:
		return 1
	case objectKindStaticBody:
		return 2
	default:
		panic("unknown object kind")
	}
}

// makeNeighborPair canonicalizes the endpoint order and derives the pair
// kind. Static-static pairs do not reach it from rebuildPairs, which drops
// the static-static leaf pairs the tree enumeration reports; this function
// itself doesn't assume that — it classifies whatever two refs it's given
// and reports false for a static-static pair.
func makeNeighborPair(a, b objectRef) (neighborPair, bool) {
	if objectRank(a.kind) > objectRank(b.kind) {
		a, b = b, a
	}
	var kind pairKind
	switch {
	case a.kind == objectKindParticle && b.kind == objectKindParticle:
		kind = pairKindParticleParticle
	case a.kind == objectKindParticle && b.kind == objectKindRigidBody:
		kind = pairKindParticleRigid
	case a.kind == objectKindParticle && b.kind == objectKindStaticBody:
		kind = pairKindParticleStatic
	case a.kind == objectKindRigidBody && b.kind == objectKindRigidBody:
		kind = pairKindRigidRigid
	case a.kind == objectKindRigidBody && b.kind == objectKindStaticBody:
		kind = pairKindRigidStatic
	default:
		// static-static: not a modeled pair kind, the engine never solves it.
		return neighborPair{}, false
	}
	return neighborPair{objects: [2]objectRef{a, b}, kind: kind, color: colorUnmarked}, true
}

// isDynamic reports whether ref refers to a particle or rigid body (i.e.
// has a neighbor-pair slice and participates in components/coloring).
func (r objectRef) isDynamic() bool {
	return r.kind == objectKindParticle || r.kind == objectKindRigidBody
}
