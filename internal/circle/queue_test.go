package circle

import (
	"reflect"
	"testing"
)

func TestQueueAddDeduplicates(t *testing.T) {
	q := NewQueue()
	if !q.Add("alice") {
		t.Fatalf("first add should succeed")
	}
	if q.Add("alice") {
		t.Fatalf("duplicate add should be rejected")
	}
	if q.Len() != 1 {
		t.Fatalf("Len = %d, want 1", q.Len())
	}
}

func TestQueueRotate(t *testing.T) {
	q := NewQueue()
	q.Add("alice")
	q.Add("bob")
	q.Add("carol")

	q.Rotate()
	if got := q.All(); !reflect.DeepEqual(got, []string{"bob", "carol", "alice"}) {
		t.Fatalf("order after rotate = %v", got)
	}
	if q.Head() != "bob" || q.Second() != "carol" {
		t.Fatalf("head=%s second=%s", q.Head(), q.Second())
	}
}

func TestQueueRotateSingleton(t *testing.T) {
	q := NewQueue()
	q.Add("alice")
	q.Rotate()
	if q.Head() != "alice" {
		t.Fatalf("rotating a singleton changed the head")
	}
}

func TestQueueRemove(t *testing.T) {
	q := NewQueue()
	q.Add("alice")
	q.Add("bob")
	q.Add("carol")

	if !q.Remove("bob") {
		t.Fatalf("remove should succeed")
	}
	if q.Remove("bob") {
		t.Fatalf("second remove should fail")
	}
	if got := q.All(); !reflect.DeepEqual(got, []string{"alice", "carol"}) {
		t.Fatalf("order after remove = %v", got)
	}
}

func TestQueueMoveToBack(t *testing.T) {
	q := NewQueue()
	q.Add("alice")
	q.Add("bob")
	q.Add("carol")

	if q.MoveToBack("alice") {
		t.Fatalf("the head cannot move to the back")
	}
	if !q.MoveToBack("bob") {
		t.Fatalf("move should succeed")
	}
	if got := q.All(); !reflect.DeepEqual(got, []string{"alice", "carol", "bob"}) {
		t.Fatalf("order after move = %v", got)
	}
}

func TestQueuePosition(t *testing.T) {
	q := NewQueue()
	q.Add("alice")
	q.Add("bob")
	if q.Position("bob") != 1 {
		t.Fatalf("Position(bob) = %d, want 1", q.Position("bob"))
	}
	if q.Position("ghost") != -1 {
		t.Fatalf("Position(ghost) = %d, want -1", q.Position("ghost"))
	}
}
