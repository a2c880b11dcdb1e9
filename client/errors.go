//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

package client

import (
	"fmt"
	"net/http"
)

// TransportError reports a non-success HTTP status from the backend. It is
// returned by the single-shot fetches and by Join when the initial response
// fails; it is never produced mid-stream.
type TransportError struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Status is the HTTP status text, e.g. "500 Internal Server Error".
	Status string
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("backend returned %s", e.Status)
}

// transportError builds a TransportError from a response.
func transportError(resp *http.Response) *TransportError {
	return &TransportError{StatusCode: resp.StatusCode, Status: resp.Status}
}

// isSuccess reports whether a status code is in the 2xx range.
func isSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}
