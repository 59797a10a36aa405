package marlon

import "testing"

// newTestWorld builds a small world sized generously for the unit tests in
// this file, which drive the internal pairing/grouping/coloring pipeline
// directly rather than through Simulate.
func newTestWorld(t *testing.T) *World {
	t.Helper()
	w, err := NewWorld(WorldCreateInfo{
		MaxParticles:              32,
		MaxRigidBodies:            32,
		MaxStaticBodies:           8,
		MaxNeighborPairs:          256,
		MaxNeighborGroups:         32,
		GravitationalAcceleration: Vec3{0, -9.81, 0},
	})
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	return w
}

func mustCreateParticle(t *testing.T, w *World, position Vec3) ParticleHandle {
	t.Helper()
	h, err := w.CreateParticle(ParticleCreateInfo{
		Mass:     1,
		Radius:   0.5,
		Position: position,
		Material: Material{StaticFriction: 0.5, DynamicFriction: 0.5, Restitution: 0},
	})
	if err != nil {
		t.Fatalf("CreateParticle: %v", err)
	}
	return h
}

func TestFindNeighborGroupsConnectsOverlappingChain(t *testing.T) {
	w := newTestWorld(t)
	// Three particles in a line, each overlapping only its neighbor: one
	// connected component of size 3.
	mustCreateParticle(t, w, NewVec3(0, 0, 0))
	mustCreateParticle(t, w, NewVec3(0.6, 0, 0))
	mustCreateParticle(t, w, NewVec3(1.2, 0, 0))
	// A fourth, isolated particle far away: its own singleton component.
	mustCreateParticle(t, w, NewVec3(100, 0, 0))

	if err := w.rebuildPairs(); err != nil {
		t.Fatalf("rebuildPairs: %v", err)
	}
	w.clearMarks()
	if err := w.findNeighborGroups(); err != nil {
		t.Fatalf("findNeighborGroups: %v", err)
	}

	if w.groupCount != 2 {
		t.Fatalf("groupCount = %d, want 2 (a 3-chain plus a singleton)", w.groupCount)
	}

	sizes := make([]int, 0, w.groupCount)
	for i := 0; i < w.groupCount; i++ {
		sizes = append(sizes, len(w.objectsOf(w.groups[i])))
	}
	foundThree, foundOne := false, false
	for _, s := range sizes {
		if s == 3 {
			foundThree = true
		}
		if s == 1 {
			foundOne = true
		}
	}
	if !foundThree || !foundOne {
		t.Errorf("group sizes = %v, want one group of 3 and one group of 1", sizes)
	}
}

func TestEveryObjectIsInExactlyOneGroup(t *testing.T) {
	w := newTestWorld(t)
	for i := 0; i < 10; i++ {
		mustCreateParticle(t, w, NewVec3(float32(i)*0.3, 0, 0))
	}
	if err := w.rebuildPairs(); err != nil {
		t.Fatalf("rebuildPairs: %v", err)
	}
	w.clearMarks()
	if err := w.findNeighborGroups(); err != nil {
		t.Fatalf("findNeighborGroups: %v", err)
	}

	seen := make(map[objectRef]int)
	for i := 0; i < w.groupCount; i++ {
		for _, ref := range w.objectsOf(w.groups[i]) {
			seen[ref]++
		}
	}
	if len(seen) != 10 {
		t.Fatalf("distinct objects across all groups = %d, want 10", len(seen))
	}
	for ref, count := range seen {
		if count != 1 {
			t.Errorf("object %v appears in %d groups, want exactly 1", ref, count)
		}
	}
}

func TestColoringProducesPairwiseDisjointColors(t *testing.T) {
	w := newTestWorld(t)
	// A small cluster of mutually-overlapping particles forces several
	// pairs to share endpoints, which is exactly what exercises coloring.
	positions := []Vec3{
		{0, 0, 0}, {0.4, 0, 0}, {0.8, 0, 0}, {0.4, 0.4, 0}, {0.4, -0.4, 0},
	}
	for _, p := range positions {
		mustCreateParticle(t, w, p)
	}

	if err := w.rebuildPairs(); err != nil {
		t.Fatalf("rebuildPairs: %v", err)
	}
	w.clearMarks()
	if err := w.findNeighborGroups(); err != nil {
		t.Fatalf("findNeighborGroups: %v", err)
	}
	w.updateGroupAwakeStates()
	if err := w.colorAllGroups(); err != nil {
		t.Fatalf("colorAllGroups: %v", err)
	}
	w.assignColorBuckets()

	for c := 0; c < w.numColors; c++ {
		seenObjects := make(map[objectRef]bool)
		for _, pairIndex := range w.colorBucket(c) {
			pair := w.pairs[pairIndex]
			for _, ref := range pair.objects {
				if !ref.isDynamic() {
					continue
				}
				if seenObjects[ref] {
					t.Errorf("color %d has two pairs sharing object %v", c, ref)
				}
				seenObjects[ref] = true
			}
		}
	}
}

func TestColoringExhaustedWhenOneObjectHasTooManyNeighbors(t *testing.T) {
	const n = maxColors + 2
	w, err := NewWorld(WorldCreateInfo{
		MaxParticles:      n + 1,
		MaxRigidBodies:    0,
		MaxStaticBodies:   0,
		MaxNeighborPairs:  2 * n,
		MaxNeighborGroups: 2,
	})
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}

	// A center particle with a huge radius overlaps every satellite's
	// AABB regardless of how far apart the satellites are placed along the
	// line; spacing the satellites 2 units apart keeps their own small
	// AABBs from overlapping each other, so every one of the n pairs
	// conflicts only on the shared center endpoint.
	_, err = w.CreateParticle(ParticleCreateInfo{
		Mass:     1,
		Radius:   1e6,
		Position: NewVec3(0, 0, 0),
		Material: Material{StaticFriction: 0.5, DynamicFriction: 0.5},
	})
	if err != nil {
		t.Fatalf("CreateParticle(center): %v", err)
	}
	for i := 0; i < n; i++ {
		mustCreateParticle(t, w, NewVec3(float32(i)*2, 100, 100))
	}

	if err := w.rebuildPairs(); err != nil {
		t.Fatalf("rebuildPairs: %v", err)
	}
	w.clearMarks()
	if err := w.findNeighborGroups(); err != nil {
		t.Fatalf("findNeighborGroups: %v", err)
	}
	w.updateGroupAwakeStates()

	if err := w.colorAllGroups(); err != ErrColoringExhausted {
		t.Errorf("colorAllGroups with >maxColors conflicting pairs = %v, want ErrColoringExhausted", err)
	}
}
