package marlon

// indexStack is a fixed-capacity LIFO of int32 values, replacing Box2D's
// linked-list-and-interface{} B2GrowableStack (CommonB2GrowableStack.go,
// itself adapted from https://gist.github.com/bemasher/1777766) with a
// preallocated slice so tree descent never allocates during Simulate.
type indexStack struct {
	data []int32
	top  int
}

func newIndexStack(capacity int) indexStack {
	return indexStack{data: make([]int32, capacity)}
}

func (s *indexStack) push(v int32) {
	s.data[s.top] = v
	s.top++
}

func (s *indexStack) pop() int32 {
	s.top--
	return s.data[s.top]
}

func (s *indexStack) empty() bool {
	return s.top == 0
}

func (s *indexStack) reset() {
	s.top = 0
}

// indexQueue is a fixed-capacity FIFO of uint32 values used for the
// connected-component BFS fringe.
type indexQueue struct {
	data  []uint32
	head  int
	count int
}

func newIndexQueue(capacity int) indexQueue {
	return indexQueue{data: make([]uint32, capacity)}
}

func (q *indexQueue) push(v uint32) {
	q.data[(q.head+q.count)%len(q.data)] = v
	q.count++
}

func (q *indexQueue) pop() uint32 {
	v := q.data[q.head]
	q.head = (q.head + 1) % len(q.data)
	q.count--
	return v
}

func (q *indexQueue) empty() bool {
	return q.count == 0
}

func (q *indexQueue) reset() {
	q.head = 0
	q.count = 0
}
