package marlon

// arena is a fixed-capacity pool with stable integer indices, a free-index
// stack, and a dense occupancy bitmap. Grounded on
// original_source/src/physics/world.cpp's Particle_storage /
// Rigid_body_storage / Static_body_storage, which are three hand-written
// copies of exactly this pattern in C++; Go generics collapse them into one
// type shared by particle.go, rigidbody.go, and staticbody.go.
type arena[T any] struct {
	data        []T
	occupied    []bool
	freeIndices []uint32
	liveCount   int
}

func newArena[T any](capacity int) *arena[T] {
	a := &arena[T]{
		data:        make([]T, capacity),
		occupied:    make([]bool, capacity),
		freeIndices: make([]uint32, capacity),
	}
	for i := 0; i < capacity; i++ {
		a.freeIndices[i] = uint32(capacity - i - 1)
	}
	return a
}

func (a *arena[T]) capacity() int {
	return len(a.data)
}

// create pops a free index, stores value there, and marks it occupied.
// Fails with ErrCapacityExceeded when the arena is full.
func (a *arena[T]) create(value T) (uint32, error) {
	if len(a.freeIndices) == 0 {
		return 0, ErrCapacityExceeded
	}
	index := a.freeIndices[len(a.freeIndices)-1]
	a.freeIndices = a.freeIndices[:len(a.freeIndices)-1]
	a.data[index] = value
	a.occupied[index] = true
	a.liveCount++
	return index, nil
}

func (a *arena[T]) destroy(index uint32) {
	assertf(a.occupied[index], "destroy of unoccupied arena slot")
	a.occupied[index] = false
	a.freeIndices = append(a.freeIndices, index)
	a.liveCount--
	var zero T
	a.data[index] = zero
}

func (a *arena[T]) get(index uint32) *T {
	assertf(a.occupied[index], "access to unoccupied arena slot")
	return &a.data[index]
}

func (a *arena[T]) isOccupied(index uint32) bool {
	return a.occupied[index]
}

func (a *arena[T]) len() int {
	return a.liveCount
}

// forEach invokes f for every occupied slot in ascending index order,
// stopping once every live entry has been visited.
func (a *arena[T]) forEach(f func(index uint32, value *T)) {
	visited := 0
	for i := 0; i < len(a.data) && visited < a.liveCount; i++ {
		if a.occupied[i] {
			f(uint32(i), &a.data[i])
			visited++
		}
	}
}
