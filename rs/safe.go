package rs

// recoverCallback turns a panic raised by a user-supplied callback into a
// CallbackFailure error. It must be deferred at the top of any function
// that invokes user code synchronously.
func recoverCallback(err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*err = wrapError(CallbackFailure, e)
		} else {
			*err = newError(CallbackFailure, "%v", r)
		}
	}
}
