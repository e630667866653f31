package errors

import "net/http"

// ErrAdvanceConflict is returned when concurrent advances from other
// processes kept winning the queue version swap.
var ErrAdvanceConflict = &Exception{
	Message:    "queue advance conflicted with another advance",
	StatusCode: http.StatusConflict,
}
