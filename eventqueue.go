package eventode

import "github.com/ode-core/eventode/state"

// eventQueue orders pending EventStates by σ·tE (§4.4), σ = +1 forward,
// -1 backward, so the earliest-in-integration-direction root always
// pops first regardless of direction.
type eventQueue[S state.Scalar[S]] struct {
	items   []*EventState[S]
	forward bool
}

func newEventQueue[S state.Scalar[S]](forward bool) *eventQueue[S] {
	return &eventQueue[S]{forward: forward}
}

func (q *eventQueue[S]) Len() int { return len(q.items) }

func (q *eventQueue[S]) Less(i, j int) bool {
	ti, _ := q.items[i].PendingTime()
	tj, _ := q.items[j].PendingTime()
	if q.forward {
		return ti.Real() < tj.Real()
	}
	return ti.Real() > tj.Real()
}

func (q *eventQueue[S]) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *eventQueue[S]) Push(x interface{}) { q.items = append(q.items, x.(*EventState[S])) }

func (q *eventQueue[S]) Pop() interface{} {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	return item
}

// indexOf returns the position of target in the heap, or -1.
func (q *eventQueue[S]) indexOf(target *EventState[S]) int {
	for i, it := range q.items {
		if it == target {
			return i
		}
	}
	return -1
}
