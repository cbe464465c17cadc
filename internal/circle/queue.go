package circle

// Queue is the rotating speaker order. Index zero holds the floor. Not
// goroutine-safe; the controller serializes access.
type Queue struct {
	order []string
}

func NewQueue() *Queue {
	return &Queue{}
}

// Add appends a user to the back unless already queued.
func (q *Queue) Add(userID string) bool {
	if q.Contains(userID) {
		return false
	}
	q.order = append(q.order, userID)
	return true
}

// Remove drops a user wherever they sit.
func (q *Queue) Remove(userID string) bool {
	for i, id := range q.order {
		if id == userID {
			q.order = append(q.order[:i], q.order[i+1:]...)
			return true
		}
	}
	return false
}

// Rotate moves the head to the back.
func (q *Queue) Rotate() {
	if len(q.order) < 2 {
		return
	}
	head := q.order[0]
	copy(q.order, q.order[1:])
	q.order[len(q.order)-1] = head
}

// MoveToBack sends a non-head user to the back of the order.
func (q *Queue) MoveToBack(userID string) bool {
	if len(q.order) == 0 || q.order[0] == userID {
		return false
	}
	if !q.Remove(userID) {
		return false
	}
	q.order = append(q.order, userID)
	return true
}

// Head returns the current speaker, or "" when empty.
func (q *Queue) Head() string {
	if len(q.order) == 0 {
		return ""
	}
	return q.order[0]
}

// Second returns the next speaker up, or "".
func (q *Queue) Second() string {
	if len(q.order) < 2 {
		return ""
	}
	return q.order[1]
}

func (q *Queue) Len() int {
	return len(q.order)
}

// Position returns a user's zero-based place in the order, or -1.
func (q *Queue) Position(userID string) int {
	for i, id := range q.order {
		if id == userID {
			return i
		}
	}
	return -1
}

func (q *Queue) Contains(userID string) bool {
	return q.Position(userID) >= 0
}

// All returns the order, head first.
func (q *Queue) All() []string {
	out := make([]string, len(q.order))
	copy(out, q.order)
	return out
}
