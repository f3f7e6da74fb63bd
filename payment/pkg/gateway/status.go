package gateway

// Status is the lifecycle state the gateway reports for an order. Raw gateway
// strings are translated once at the client boundary so callers never compare
// against provider-specific values.
type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusSaved     Status = "SAVED"
	StatusApproved  Status = "APPROVED"
	StatusVoided    Status = "VOIDED"
	StatusCompleted Status = "COMPLETED"
	StatusDeclined  Status = "PAYER_ACTION_REQUIRED"
	StatusUnknown   Status = "UNKNOWN"
)

func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusCreated, StatusSaved, StatusApproved, StatusVoided, StatusCompleted, StatusDeclined:
		return Status(s)
	default:
		return StatusUnknown
	}
}

func (s Status) Completed() bool {
	return s == StatusCompleted
}
