package constants

type TaskStatus string

const (
	TaskOpen      TaskStatus = "open"
	TaskTodo      TaskStatus = "todo"
	TaskDone      TaskStatus = "done"
	TaskCompleted TaskStatus = "completed"
	TaskCancelled TaskStatus = "cancelled"
	TaskExpired   TaskStatus = "expired"
	TaskOverdue   TaskStatus = "overdue"
)

// Assigned reports whether a task in this status has a tasker bound to it.
func (s TaskStatus) Assigned() bool {
	switch s {
	case TaskTodo, TaskDone, TaskCompleted:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskCompleted, TaskCancelled, TaskExpired, TaskOverdue:
		return true
	}
	return false
}

type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferAccepted  OfferStatus = "accepted"
	OfferRejected  OfferStatus = "rejected"
	OfferWithdrawn OfferStatus = "withdrawn"
	OfferCompleted OfferStatus = "completed"
)

type PaymentStatus string

const (
	PaymentRequiresMethod PaymentStatus = "requires_payment_method"
	PaymentPending        PaymentStatus = "pending"
	PaymentSucceeded      PaymentStatus = "succeeded"
	PaymentFailed         PaymentStatus = "failed"
)

type IntentStatus string

const (
	IntentPending   IntentStatus = "pending"
	IntentCompleted IntentStatus = "completed"
	IntentFailed    IntentStatus = "failed"
)
