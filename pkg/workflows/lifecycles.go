package workflows

// Status values shared by every lifecycle. Each entity uses a subset.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusMatched   = "matched"
	StatusExecuted  = "executed"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
)

// ListingLifecycle governs donations and requests.
func ListingLifecycle() *StateMachine[string] {
	return NewStateMachine("listing", map[string][]string{
		StatusPending:   {StatusApproved, StatusRejected},
		StatusApproved:  {StatusMatched, StatusRejected},
		StatusMatched:   {StatusExecuted},
		StatusExecuted:  {StatusCompleted},
		StatusCompleted: {},
		StatusRejected:  {},
	})
}

// InterestLifecycle governs a donor's interest in a request.
func InterestLifecycle() *StateMachine[string] {
	return NewStateMachine("interest", map[string][]string{
		StatusPending:   {StatusApproved, StatusRejected},
		StatusApproved:  {StatusCompleted, StatusRejected},
		StatusCompleted: {},
		StatusRejected:  {},
	})
}

// MatchLifecycle governs a match once created.
func MatchLifecycle() *StateMachine[string] {
	return NewStateMachine("match", map[string][]string{
		StatusApproved:  {StatusExecuted},
		StatusExecuted:  {StatusCompleted},
		StatusCompleted: {},
	})
}
