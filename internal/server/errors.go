package server

import "net/http"

type httpError struct {
	Status  int
	Message string
}

func (e *httpError) Error() string {
	return e.Message
}

var (
	errNotFound = &httpError{
		Status:  http.StatusNotFound,
		Message: "Not Found",
	}

	errForbidden = &httpError{
		Status:  http.StatusForbidden,
		Message: "Forbidden",
	}

	errMethodNotAllowed = &httpError{
		Status:  http.StatusMethodNotAllowed,
		Message: "Method Not Allowed",
	}
)
