package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrBodyTooLarge is wrapped in a TransportError when a reply exceeds 1 MiB.
var ErrBodyTooLarge = errors.New("response body exceeds 1 MiB")

// TransportError is a failure to reach the device or read its reply.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AppError is a reply the device sent on purpose: {ok:false} or
// {success:false}, or an error status with no usable body.
type AppError struct {
	Status  int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// UnknownError is the message used when the device gave no reason.
const UnknownError = "unknown error"

type replyFlags struct {
	OK      *bool  `json:"ok"`
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Check returns an *AppError when resp reports failure, and nil otherwise.
func Check(resp *Response) error {
	var f replyFlags
	// Arrays and other non-object bodies carry no flags.
	_ = json.Unmarshal(resp.Body, &f)

	failed := (f.OK != nil && !*f.OK) || (f.Success != nil && !*f.Success)
	if !failed && resp.Status < http.StatusBadRequest {
		return nil
	}

	msg := f.Message
	if msg == "" {
		msg = f.Error
	}
	if msg == "" {
		msg = UnknownError
	}
	return &AppError{Status: resp.Status, Message: msg}
}
