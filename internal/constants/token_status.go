package constants

type TokenStatus string

const (
	StatusWaiting   TokenStatus = "waiting"
	StatusServing   TokenStatus = "serving"
	StatusCompleted TokenStatus = "completed"
	StatusSkipped   TokenStatus = "skipped"
	StatusCanceled  TokenStatus = "canceled"
)

var TokenStatuses = []TokenStatus{
	StatusWaiting,
	StatusServing,
	StatusCompleted,
	StatusSkipped,
	StatusCanceled,
}

func ParseTokenStatus(s string) (TokenStatus, bool) {
	for _, status := range TokenStatuses {
		if string(status) == s {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether no queue operation moves a token out of the status.
func (s TokenStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusSkipped, StatusCanceled:
		return true
	}
	return false
}

// transitions lists the moves a status update may make when strict
// transitions are enabled. Only advancing the queue sets serving.
var transitions = map[TokenStatus][]TokenStatus{
	StatusWaiting: {StatusSkipped, StatusCanceled},
	StatusServing: {StatusCompleted, StatusSkipped, StatusCanceled},
}

func CanTransition(from, to TokenStatus) bool {
	if from == to {
		return true
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
