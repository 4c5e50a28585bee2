package prestoclient

import "fmt"

// ErrorCode classifies client-side failures of a query, as reported by
// Result.ErrorCode. Server-reported query failures are not client errors;
// they surface through Result.ServerError and the QueryError type.
type ErrorCode int

const (
	ErrOK ErrorCode = iota
	ErrBadRequestData
	ErrServerError
	ErrMaxRetriesReached
	ErrTransportError
	ErrParseJSON
)

// Description returns a short human-readable explanation of the code, or
// an empty string for ErrOK.
func (e ErrorCode) Description() string {
	switch e {
	case ErrOK:
		return ""
	case ErrBadRequestData:
		return "not all parameters to start the request are available"
	case ErrServerError:
		return "server returned an unexpected http code"
	case ErrMaxRetriesReached:
		return "server is busy"
	case ErrTransportError:
		return "transport error occurred"
	case ErrParseJSON:
		return "error parsing returned json object"
	default:
		return "invalid error code"
	}
}

// ClientError is returned by Client.Query when the query failed on the
// client side: a transport problem, an unexpected http code, exhausted
// retries, or a malformed server reply. Transport carries the opaque
// transport-level detail when there is one.
type ClientError struct {
	Code      ErrorCode
	Transport string
}

func (e *ClientError) Error() string {
	if e.Transport != "" {
		return fmt.Sprintf("prestoclient: %s: %s", e.Code.Description(), e.Transport)
	}
	return "prestoclient: " + e.Code.Description()
}

// QueryError is returned by Client.Query when the Presto server reported a
// query failure. Message aggregates the failure type and message lines the
// server sent; State is the last server-reported query state.
type QueryError struct {
	Message string
	State   string
}

func (e *QueryError) Error() string {
	if e.Message == "" {
		return "prestoclient: query failed in state " + e.State
	}
	return "prestoclient: query failed: " + e.Message
}
