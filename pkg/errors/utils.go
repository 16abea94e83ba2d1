package errors

// Is reports whether err is an *Error carrying the given code.
func Is(err error, code Code) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Code.Equals(code)
}

// AsError coerces err into *Error, wrapping it under CommonInternal if it
// isn't already one, and invoking Transform() when it implements InternalError.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	if ie, ok := err.(InternalError); ok {
		return ie.Transform()
	}
	return New(CommonInternal, err.Error(), err)
}
