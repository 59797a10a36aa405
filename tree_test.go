package marlon

import (
	"testing"
)

func refOf(i int) objectRef {
	return objectRef{kind: objectKindParticle, index: uint32(i)}
}

func unorderedPairKey(a, b objectRef) [2]objectRef {
	if b.less(a) {
		a, b = b, a
	}
	return [2]objectRef{a, b}
}

// bruteForceOverlaps enumerates every unordered overlapping pair among boxes
// by direct O(n^2) comparison, used as an oracle for forEachOverlappingLeafPair.
func bruteForceOverlaps(boxes []AABB) map[[2]objectRef]bool {
	result := make(map[[2]objectRef]bool)
	for i := 0; i < len(boxes); i++ {
		for j := i + 1; j < len(boxes); j++ {
			if overlapAABB(boxes[i], boxes[j]) {
				result[unorderedPairKey(refOf(i), refOf(j))] = true
			}
		}
	}
	return result
}

func TestTreeOverlapEnumerationMatchesBruteForce(t *testing.T) {
	boxes := []AABB{
		{Lower: Vec3{0, 0, 0}, Upper: Vec3{1, 1, 1}},
		{Lower: Vec3{0.5, 0.5, 0.5}, Upper: Vec3{1.5, 1.5, 1.5}}, // overlaps 0
		{Lower: Vec3{10, 10, 10}, Upper: Vec3{11, 11, 11}},       // isolated
		{Lower: Vec3{0.9, 0.9, 0.9}, Upper: Vec3{2, 2, 2}},       // overlaps 0 and 1
		{Lower: Vec3{-5, -5, -5}, Upper: Vec3{-4, -4, -4}},       // isolated
	}

	tree := newTree(len(boxes))
	for i, box := range boxes {
		tree.createLeaf(box, refOf(i))
	}

	want := bruteForceOverlaps(boxes)
	got := make(map[[2]objectRef]bool)
	tree.forEachOverlappingLeafPair(func(a, b objectRef) {
		key := unorderedPairKey(a, b)
		if got[key] {
			t.Errorf("pair %v enumerated more than once", key)
		}
		got[key] = true
	})

	if len(got) != len(want) {
		t.Fatalf("forEachOverlappingLeafPair found %d pairs, want %d (got=%v want=%v)", len(got), len(want), got, want)
	}
	for key := range want {
		if !got[key] {
			t.Errorf("missing expected overlapping pair %v", key)
		}
	}
}

func TestTreeOverlapEnumerationEmptyTree(t *testing.T) {
	tree := newTree(4)
	count := 0
	tree.forEachOverlappingLeafPair(func(a, b objectRef) { count++ })
	if count != 0 {
		t.Errorf("empty tree reported %d pairs, want 0", count)
	}
}

func TestTreeMoveLeafUpdatesBounds(t *testing.T) {
	tree := newTree(2)
	a := tree.createLeaf(AABB{Lower: Vec3{0, 0, 0}, Upper: Vec3{1, 1, 1}}, refOf(0))
	tree.createLeaf(AABB{Lower: Vec3{5, 5, 5}, Upper: Vec3{6, 6, 6}}, refOf(1))

	var before []objectRef
	tree.forEachOverlappingLeafPair(func(x, y objectRef) { before = append(before, x, y) })
	if len(before) != 0 {
		t.Fatalf("expected no overlap before move, got %v", before)
	}

	tree.moveLeaf(a, AABB{Lower: Vec3{5.5, 5.5, 5.5}, Upper: Vec3{6.5, 6.5, 6.5}})

	var after []objectRef
	tree.forEachOverlappingLeafPair(func(x, y objectRef) { after = append(after, x, y) })
	if len(after) == 0 {
		t.Fatalf("expected an overlap after move, got none")
	}
}

func TestTreeDestroyLeafRemovesFromEnumeration(t *testing.T) {
	tree := newTree(3)
	a := tree.createLeaf(AABB{Lower: Vec3{0, 0, 0}, Upper: Vec3{1, 1, 1}}, refOf(0))
	tree.createLeaf(AABB{Lower: Vec3{0.5, 0.5, 0.5}, Upper: Vec3{1.5, 1.5, 1.5}}, refOf(1))

	var before int
	tree.forEachOverlappingLeafPair(func(x, y objectRef) { before++ })
	if before != 1 {
		t.Fatalf("expected 1 overlapping pair before destroy, got %d", before)
	}

	tree.destroyLeaf(a)

	var after int
	tree.forEachOverlappingLeafPair(func(x, y objectRef) { after++ })
	if after != 0 {
		t.Fatalf("expected 0 overlapping pairs after destroy, got %d", after)
	}
}

func TestTreeManyLeavesHeightBalanced(t *testing.T) {
	const n = 64
	boxes := make([]AABB, n)
	for i := 0; i < n; i++ {
		x := float32(i)
		boxes[i] = AABB{Lower: Vec3{x, 0, 0}, Upper: Vec3{x + 0.4, 1, 1}}
	}
	tree := newTree(n)
	for i, box := range boxes {
		tree.createLeaf(box, refOf(i))
	}
	if tree.root == nullIndex {
		t.Fatal("root is null after inserting leaves")
	}
	height := int(tree.nodes[tree.root].height)
	sortedLog := 1
	for (1 << sortedLog) < n {
		sortedLog++
	}
	if height > 2*sortedLog+2 {
		t.Errorf("tree height %d looks unbalanced for %d leaves (expected roughly O(log n) ~ %d)", height, n, sortedLog)
	}
}
