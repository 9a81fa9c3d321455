package services

// Actor identifies who is requesting a transition. System is set only by
// in-process callers (the deadline sweeper, reconciliation); requests
// arriving over HTTP can never carry it.
type Actor struct {
	ID     string
	System bool
}

var SystemActor = Actor{ID: "system", System: true}
