package nimbus

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned when a call is attempted after the client's
// transport session has been closed. Closed sessions are terminal: build a
// new client to resume calling.
var ErrSessionClosed = errors.New("transport session is closed")

// ErrNoMorePages is returned by Paginator.NextPage once the final page has
// been consumed. Paginators are single-use and do not restart.
var ErrNoMorePages = errors.New("pagination exhausted")

// ConfigValidationError reports a connector option with an unrecognized name
// or a value of the wrong type. It is raised at config construction, never
// at first network use.
type ConfigValidationError struct {
	Option string
	Expect string
}

func (e *ConfigValidationError) Error() string {
	if e.Expect == "" {
		return fmt.Sprintf("invalid connector option %q", e.Option)
	}
	return fmt.Sprintf("connector option %q must be %s", e.Option, e.Expect)
}

// ParamValidationError reports call parameters that failed validation
// against the operation's input shape. The request never reaches the wire.
type ParamValidationError struct {
	Report string
}

func (e *ParamValidationError) Error() string {
	return "parameter validation failed: " + e.Report
}

// UnknownOperationError reports a call against an operation the service
// description does not declare.
type UnknownOperationError struct {
	Service   string
	Operation string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("service %q has no operation %q", e.Service, e.Operation)
}

// OperationNotPageableError reports a paginator request for an operation
// without pagination metadata.
type OperationNotPageableError struct {
	Operation string
}

func (e *OperationNotPageableError) Error() string {
	return fmt.Sprintf("operation %q is not pageable", e.Operation)
}

// ServiceError is a completed response with status >= 300. It carries the
// parsed error body; nothing at this layer retries it.
type ServiceError struct {
	Operation  string
	StatusCode int
	Code       string
	Message    string
	Body       Document
	RequestID  string
}

func (e *ServiceError) Error() string {
	code := e.Code
	if code == "" {
		code = fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	if e.Message == "" {
		return fmt.Sprintf("%s failed: %s", e.Operation, code)
	}
	return fmt.Sprintf("%s failed: %s: %s", e.Operation, code, e.Message)
}

// UnknownProtocolError reports a service description whose protocol has no
// registered serializer or parser.
type UnknownProtocolError struct {
	Protocol string
}

func (e *UnknownProtocolError) Error() string {
	return fmt.Sprintf("unsupported protocol %q", e.Protocol)
}
