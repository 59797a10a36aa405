package marlon

// colorNeighborGroup assigns every pair in g a small non-negative color such
// that no two pairs sharing an endpoint object receive the same color. Pairs
// are processed in the order findNeighborGroups discovered them (already a
// breadth-first order over the component), so the loop below needs no
// separate queue: a pair's color is decided the first and only time it is
// visited here, and every pair it conflicts with that was visited earlier
// already holds a real color (anything not yet visited is still
// colorMarked and is skipped by collectUsedColors).
func (w *World) colorNeighborGroup(g group) error {
	for _, pairIndex := range w.pairsOf(g) {
		pair := &w.pairs[pairIndex]
		w.colorScratch.clear()
		w.collectUsedColors(pair.objects[0], &w.colorScratch)
		w.collectUsedColors(pair.objects[1], &w.colorScratch)
		c := w.colorScratch.firstUnset()
		if c >= maxColors {
			return ErrColoringExhausted
		}
		pair.color = uint16(c)
		if c+1 > w.numColors {
			w.numColors = c + 1
		}
	}
	return nil
}

// collectUsedColors ORs into dst the color of every already-colored pair
// incident to ref. Pairs still holding colorMarked or colorUnmarked are not
// yet colored and are skipped.
func (w *World) collectUsedColors(ref objectRef, dst *bitset) {
	for _, pairIndex := range w.pairSlice(ref) {
		c := w.pairs[pairIndex].color
		if c != colorMarked && c != colorUnmarked {
			dst.set(int(c))
		}
	}
}

// colorAllGroups colors every active component. Components are independent
// (they share no objects and therefore no pairs), so coloring order between
// components doesn't affect correctness, only which small integers each
// component's pairs happen to land on.
func (w *World) colorAllGroups() error {
	w.numColors = 0
	for i := 0; i < w.groupCount; i++ {
		g := w.groups[i]
		if !g.active {
			continue
		}
		if err := w.colorNeighborGroup(g); err != nil {
			return err
		}
	}
	return nil
}

// assignColorBuckets buckets every colored pair by color using a two-phase
// count-then-fill pass (no per-bucket allocation: colorBuckets is sized to
// maxNeighborPairs once at construction). After this call,
// colorBucket(c) returns the pair indices sharing color c, each chunked by
// solve.go into groups of at most maxSolveChunkSize for dispatch.
func (w *World) assignColorBuckets() {
	for c := 0; c < w.numColors; c++ {
		w.colorCounts[c] = 0
	}

	countPair := func(pairIndex uint32) {
		c := w.pairs[pairIndex].color
		if c != colorMarked && c != colorUnmarked {
			w.colorCounts[c]++
		}
	}
	for i := 0; i < w.groupCount; i++ {
		if !w.groups[i].active {
			continue
		}
		for _, pairIndex := range w.pairsOf(w.groups[i]) {
			countPair(pairIndex)
		}
	}

	var offset uint32
	for c := 0; c < w.numColors; c++ {
		w.colorOffsets[c] = offset
		offset += w.colorCounts[c]
	}
	w.colorOffsets[w.numColors] = offset

	copy(w.colorCursor[:w.numColors], w.colorOffsets[:w.numColors])

	for i := 0; i < w.groupCount; i++ {
		if !w.groups[i].active {
			continue
		}
		for _, pairIndex := range w.pairsOf(w.groups[i]) {
			c := w.pairs[pairIndex].color
			if c == colorMarked || c == colorUnmarked {
				continue
			}
			w.colorBuckets[w.colorCursor[c]] = pairIndex
			w.colorCursor[c]++
		}
	}
}

// colorBucket returns the pair indices assigned color c.
func (w *World) colorBucket(c int) []uint32 {
	return w.colorBuckets[w.colorOffsets[c]:w.colorOffsets[c+1]]
}
