package marlon

// objectKind tags which arena a leaf payload or neighbor-pair endpoint
// belongs to: tree leaves carry a tagged handle enum, not an owning pointer.
type objectKind uint8

const (
	objectKindParticle objectKind = iota
	objectKindRigidBody
	objectKindStaticBody
)

// objectRef is a tagged handle into one of the three object arenas.
type objectRef struct {
	kind  objectKind
	index uint32
}

func (a objectRef) less(b objectRef) bool {
	if a.kind != b.kind {
		return a.kind < b.kind
	}
	return a.index < b.index
}

// treeNode is one node of the dynamic AABB tree. Leaves have
// child1 == nullIndex; internal nodes carry no payload.
//
// Adapted from Box2D's B2TreeNode (CollisionB2DynamicTree.go),
// generalized from a 2D B2AABB to the 3D AABB in aabb.go. Unlike Box2D's
// pool, this one never grows past its initial capacity — Simulate must
// never allocate, so World sizes the tree for 2*maxLeaves-1 nodes (the
// maximum a binary tree needs) up front.
type treeNode struct {
	box     AABB
	payload objectRef

	parent int32 // also reused as the free-list link when the node is free
	child1 int32
	child2 int32
	height int32
}

func (n treeNode) isLeaf() bool {
	return n.child1 == nullIndex
}

// Tree is a dynamic bounding-volume hierarchy over live leaves.
type Tree struct {
	nodes    []treeNode
	root     int32
	freeList int32
	count    int32

	// pairStackA and pairStackB are reused across forEachOverlappingLeafPair calls so
	// broadphase enumeration never allocates.
	pairStackA indexStack
	pairStackB indexStack
}

func newTree(maxLeaves int) *Tree {
	capacity := 2*maxLeaves - 1
	if capacity < 1 {
		capacity = 1
	}
	t := &Tree{
		nodes:      make([]treeNode, capacity),
		root:       nullIndex,
		freeList:   0,
		pairStackA: newIndexStack(4 * capacity),
		pairStackB: newIndexStack(4 * capacity),
	}
	for i := 0; i < capacity-1; i++ {
		t.nodes[i].parent = int32(i + 1)
		t.nodes[i].height = -1
	}
	t.nodes[capacity-1].parent = nullIndex
	t.nodes[capacity-1].height = -1
	return t
}

func (t *Tree) allocateNode() int32 {
	assertf(t.freeList != nullIndex, "dynamic AABB tree exhausted its fixed node pool")
	id := t.freeList
	t.freeList = t.nodes[id].parent
	t.nodes[id] = treeNode{parent: nullIndex, child1: nullIndex, child2: nullIndex, height: 0}
	t.count++
	return id
}

func (t *Tree) freeNode(id int32) {
	t.nodes[id].parent = t.freeList
	t.nodes[id].height = -1
	t.freeList = id
	t.count--
}

// createLeaf inserts a new leaf with the given (already safety-inflated)
// box and payload, returning its node index.
func (t *Tree) createLeaf(box AABB, payload objectRef) int32 {
	id := t.allocateNode()
	t.nodes[id].box = box
	t.nodes[id].payload = payload
	t.nodes[id].height = 0
	t.insertLeaf(id)
	return id
}

func (t *Tree) destroyLeaf(id int32) {
	assertf(t.nodes[id].isLeaf(), "destroyLeaf on an internal node")
	t.removeLeaf(id)
	t.freeNode(id)
}

// moveLeaf replaces a leaf's box and re-inserts it if the new box isn't
// already contained by the current one. Mirrors B2DynamicTree.MoveProxy
// without the fat-AABB/displacement prediction machinery: World recomputes
// the full safety-inflated box every frame, so there is no
// separate "fattening" step here.
func (t *Tree) moveLeaf(id int32, box AABB) {
	if t.nodes[id].box.contains(box) {
		return
	}
	t.removeLeaf(id)
	t.nodes[id].box = box
	t.insertLeaf(id)
}

// insertLeaf ports B2DynamicTree.InsertLeaf's SAH sibling search and AVL
// rebalancing from 2D perimeter cost to 3D surface-area cost.
func (t *Tree) insertLeaf(leaf int32) {
	if t.root == nullIndex {
		t.root = leaf
		t.nodes[t.root].parent = nullIndex
		return
	}

	leafBox := t.nodes[leaf].box
	index := t.root
	for !t.nodes[index].isLeaf() {
		child1 := t.nodes[index].child1
		child2 := t.nodes[index].child2

		area := t.nodes[index].box.surfaceArea()
		combined := unionAABB(t.nodes[index].box, leafBox)
		combinedArea := combined.surfaceArea()

		cost := 2 * combinedArea
		inheritanceCost := 2 * (combinedArea - area)

		cost1 := unionAABB(leafBox, t.nodes[child1].box).surfaceArea() + inheritanceCost
		if !t.nodes[child1].isLeaf() {
			cost1 -= t.nodes[child1].box.surfaceArea()
		}

		cost2 := unionAABB(leafBox, t.nodes[child2].box).surfaceArea() + inheritanceCost
		if !t.nodes[child2].isLeaf() {
			cost2 -= t.nodes[child2].box.surfaceArea()
		}

		if cost < cost1 && cost < cost2 {
			break
		}
		if cost1 < cost2 {
			index = child1
		} else {
			index = child2
		}
	}

	sibling := index
	oldParent := t.nodes[sibling].parent
	newParent := t.allocateNode()
	t.nodes[newParent].parent = oldParent
	t.nodes[newParent].box = unionAABB(leafBox, t.nodes[sibling].box)
	t.nodes[newParent].height = t.nodes[sibling].height + 1

	if oldParent != nullIndex {
		if t.nodes[oldParent].child1 == sibling {
			t.nodes[oldParent].child1 = newParent
		} else {
			t.nodes[oldParent].child2 = newParent
		}
	} else {
		t.root = newParent
	}
	t.nodes[newParent].child1 = sibling
	t.nodes[newParent].child2 = leaf
	t.nodes[sibling].parent = newParent
	t.nodes[leaf].parent = newParent

	index = t.nodes[leaf].parent
	for index != nullIndex {
		index = t.balance(index)
		child1 := t.nodes[index].child1
		child2 := t.nodes[index].child2
		t.nodes[index].height = 1 + maxInt32(t.nodes[child1].height, t.nodes[child2].height)
		t.nodes[index].box = unionAABB(t.nodes[child1].box, t.nodes[child2].box)
		index = t.nodes[index].parent
	}
}

// removeLeaf ports B2DynamicTree.RemoveLeaf.
func (t *Tree) removeLeaf(leaf int32) {
	if leaf == t.root {
		t.root = nullIndex
		return
	}

	parent := t.nodes[leaf].parent
	grandParent := t.nodes[parent].parent
	var sibling int32
	if t.nodes[parent].child1 == leaf {
		sibling = t.nodes[parent].child2
	} else {
		sibling = t.nodes[parent].child1
	}

	if grandParent != nullIndex {
		if t.nodes[grandParent].child1 == parent {
			t.nodes[grandParent].child1 = sibling
		} else {
			t.nodes[grandParent].child2 = sibling
		}
		t.nodes[sibling].parent = grandParent
		t.freeNode(parent)

		index := grandParent
		for index != nullIndex {
			index = t.balance(index)
			child1 := t.nodes[index].child1
			child2 := t.nodes[index].child2
			t.nodes[index].box = unionAABB(t.nodes[child1].box, t.nodes[child2].box)
			t.nodes[index].height = 1 + maxInt32(t.nodes[child1].height, t.nodes[child2].height)
			index = t.nodes[index].parent
		}
	} else {
		t.root = sibling
		t.nodes[sibling].parent = nullIndex
		t.freeNode(parent)
	}
}

// balance ports B2DynamicTree.Balance's AVL-style single rotation.
func (t *Tree) balance(iA int32) int32 {
	a := &t.nodes[iA]
	if a.isLeaf() || a.height < 2 {
		return iA
	}

	iB := a.child1
	iC := a.child2
	b := &t.nodes[iB]
	c := &t.nodes[iC]

	balance := c.height - b.height

	if balance > 1 {
		iF := c.child1
		iG := c.child2
		f := &t.nodes[iF]
		g := &t.nodes[iG]

		c.child1 = iA
		c.parent = a.parent
		a.parent = iC

		if c.parent != nullIndex {
			if t.nodes[c.parent].child1 == iA {
				t.nodes[c.parent].child1 = iC
			} else {
				t.nodes[c.parent].child2 = iC
			}
		} else {
			t.root = iC
		}

		if f.height > g.height {
			c.child2 = iF
			a.child2 = iG
			g.parent = iA
			a.box = unionAABB(b.box, g.box)
			c.box = unionAABB(a.box, f.box)
			a.height = 1 + maxInt32(b.height, g.height)
			c.height = 1 + maxInt32(a.height, f.height)
		} else {
			c.child2 = iG
			a.child2 = iF
			f.parent = iA
			a.box = unionAABB(b.box, f.box)
			c.box = unionAABB(a.box, g.box)
			a.height = 1 + maxInt32(b.height, f.height)
			c.height = 1 + maxInt32(a.height, g.height)
		}
		return iC
	}

	if balance < -1 {
		iD := b.child1
		iE := b.child2
		d := &t.nodes[iD]
		e := &t.nodes[iE]

		b.child1 = iA
		b.parent = a.parent
		a.parent = iB

		if b.parent != nullIndex {
			if t.nodes[b.parent].child1 == iA {
				t.nodes[b.parent].child1 = iB
			} else {
				t.nodes[b.parent].child2 = iB
			}
		} else {
			t.root = iB
		}

		if d.height > e.height {
			b.child2 = iD
			a.child1 = iE
			e.parent = iA
			a.box = unionAABB(c.box, e.box)
			b.box = unionAABB(a.box, d.box)
			a.height = 1 + maxInt32(c.height, e.height)
			b.height = 1 + maxInt32(a.height, d.height)
		} else {
			b.child2 = iE
			a.child1 = iD
			d.parent = iA
			a.box = unionAABB(c.box, d.box)
			b.box = unionAABB(a.box, e.box)
			a.height = 1 + maxInt32(c.height, d.height)
			b.height = 1 + maxInt32(a.height, e.height)
		}
		return iB
	}

	return iA
}

// forEachOverlappingLeafPair invokes f exactly once per unordered pair of
// leaves whose fattened boxes overlap. This is the classic
// recursive dual-tree self-query: descend the larger-height subtree first so
// every pair of nodes is visited exactly once, with no duplicate and no
// self pair. Box2D has no equivalent function (its broadphase pairing lived
// in CollisionB2BroadPhase.go, which paired one new proxy at a time against a
// tree query); this generalizes the same box-overlap test used by
// B2DynamicTree.Query into a full self-enumeration.
func (t *Tree) forEachOverlappingLeafPair(f func(a, b objectRef)) {
	if t.root == nullIndex {
		return
	}
	t.pairStackA.reset()
	t.pairStackB.reset()
	t.pairStackA.push(t.root)
	t.pairStackB.push(t.root)

	for !t.pairStackA.empty() {
		nodeA := t.pairStackA.pop()
		nodeB := t.pairStackB.pop()

		if nodeA == nodeB {
			if t.nodes[nodeA].isLeaf() {
				continue
			}
			c1 := t.nodes[nodeA].child1
			c2 := t.nodes[nodeA].child2
			t.pairStackA.push(c1)
			t.pairStackB.push(c1)
			t.pairStackA.push(c2)
			t.pairStackB.push(c2)
			t.pairStackA.push(c1)
			t.pairStackB.push(c2)
			continue
		}

		if !overlapAABB(t.nodes[nodeA].box, t.nodes[nodeB].box) {
			continue
		}

		leafA := t.nodes[nodeA].isLeaf()
		leafB := t.nodes[nodeB].isLeaf()

		if leafA && leafB {
			f(t.nodes[nodeA].payload, t.nodes[nodeB].payload)
			continue
		}

		if leafB || (!leafA && t.nodes[nodeA].height >= t.nodes[nodeB].height) {
			t.pairStackA.push(t.nodes[nodeA].child1)
			t.pairStackB.push(nodeB)
			t.pairStackA.push(t.nodes[nodeA].child2)
			t.pairStackB.push(nodeB)
		} else {
			t.pairStackA.push(nodeA)
			t.pairStackB.push(t.nodes[nodeB].child1)
			t.pairStackA.push(nodeA)
			t.pairStackB.push(t.nodes[nodeB].child2)
		}
	}
}

func maxInt32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
