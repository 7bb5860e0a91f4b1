package messenger

// reconciler coalesces mark-read requests: one call per conversation is in
// flight at a time, and requests made meanwhile collapse into one rerun.
type reconciler struct {
	inFlight map[string]bool
	again    map[string]bool
}

func newReconciler() *reconciler {
	return &reconciler{
		inFlight: make(map[string]bool),
		again:    make(map[string]bool),
	}
}

// request reports whether the caller should start a call now.
func (r *reconciler) request(conversationID string) bool {
	if r.inFlight[conversationID] {
		r.again[conversationID] = true
		return false
	}
	r.inFlight[conversationID] = true
	return true
}

// done reports whether a rerun was requested while the call was in flight.
// In that case the conversation stays in flight.
func (r *reconciler) done(conversationID string) bool {
	if r.again[conversationID] {
		delete(r.again, conversationID)
		return true
	}
	delete(r.inFlight, conversationID)
	return false
}
