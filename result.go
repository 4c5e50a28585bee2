package prestoclient

import (
	"strings"
	"sync/atomic"

	"github.com/easydatawarehousing/prestoclient/internal/jstream"
)

// Status is the client-side view of a query's lifecycle. It is distinct
// from the state string reported by the Presto server (ServerState).
type Status int

const (
	StatusNone Status = iota
	StatusRunning
	StatusSucceeded
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "RUNNING"
	case StatusSucceeded:
		return "SUCCEEDED"
	case StatusFailed:
		return "FAILED"
	default:
		return "NONE"
	}
}

// ColumnType identifies the Presto type of a result column.
type ColumnType int

const (
	TypeUndefined ColumnType = iota
	TypeVarchar
	TypeBigint
	TypeBoolean
	TypeDouble
	TypeDate
	TypeTime
	TypeTimeWithTimeZone
	TypeTimestamp
	TypeTimestampWithTimeZone
	TypeIntervalYearToMonth
	TypeIntervalDayToSecond
)

// typeNames maps the wire spelling of a Presto type to the enum. Anything
// not listed here is treated as varchar.
var typeNames = map[string]ColumnType{
	"varchar":                  TypeVarchar,
	"bigint":                   TypeBigint,
	"boolean":                  TypeBoolean,
	"double":                   TypeDouble,
	"date":                     TypeDate,
	"time":                     TypeTime,
	"time with time zone":      TypeTimeWithTimeZone,
	"timestamp":                TypeTimestamp,
	"timestamp with time zone": TypeTimestampWithTimeZone,
	"interval year to month":   TypeIntervalYearToMonth,
	"interval day to second":   TypeIntervalDayToSecond,
}

// parseColumnType maps server type text to a ColumnType, defaulting to
// varchar for unrecognized spellings.
func parseColumnType(s string) ColumnType {
	if t, ok := typeNames[s]; ok {
		return t
	}
	return TypeVarchar
}

// Name returns the PRESTO_-prefixed type name.
func (t ColumnType) Name() string {
	switch t {
	case TypeVarchar:
		return "PRESTO_VARCHAR"
	case TypeBigint:
		return "PRESTO_BIGINT"
	case TypeBoolean:
		return "PRESTO_BOOLEAN"
	case TypeDouble:
		return "PRESTO_DOUBLE"
	case TypeDate:
		return "PRESTO_DATE"
	case TypeTime:
		return "PRESTO_TIME"
	case TypeTimeWithTimeZone:
		return "PRESTO_TIME_WITH_TIME_ZONE"
	case TypeTimestamp:
		return "PRESTO_TIMESTAMP"
	case TypeTimestampWithTimeZone:
		return "PRESTO_TIMESTAMP_WITH_TIME_ZONE"
	case TypeIntervalYearToMonth:
		return "PRESTO_INTERVAL_YEAR_TO_MONTH"
	case TypeIntervalDayToSecond:
		return "PRESTO_INTERVAL_DAY_TO_SECOND"
	default:
		return "PRESTO_UNDEFINED"
	}
}

// column holds the schema entry and the current-row cell for one column.
type column struct {
	name   string
	typ    ColumnType
	data   string
	isNull bool
}

// Result is the evolving state of one query. It is created by Client.Query
// and mutated only by the query driver and the JSON pipeline, on the
// goroutine that called Query. Callbacks run synchronously on that same
// goroutine and read the result through the accessor methods.
//
// Cancel is the one exception: it may be called from any goroutine.
type Result struct {
	client     *Client
	onDescribe func(*Result)
	onRow      func(*Result)

	cancelRequested atomic.Bool
	deleteSent      bool

	columns       []*column
	columnsFrozen bool
	describeFired bool
	curCol        int
	rowDelivered  bool

	status       Status
	infoURI      string
	nextURI      string
	cancelURI    string
	lastState    string
	serverError  string
	errorCode    ErrorCode
	transportErr string

	scanner *jstream.Scanner
	lexer   *jstream.Lexer
	buf     []byte
}

// newResult prepares an empty result bound to c.
func newResult(c *Client, onDescribe, onRow func(*Result)) *Result {
	r := &Result{
		client:     c,
		onDescribe: onDescribe,
		onRow:      onRow,
		curCol:     -1,
	}
	r.scanner = jstream.NewScanner()
	r.lexer = jstream.NewLexer(r.project)
	return r
}

// Status returns the client-side query status.
func (r *Result) Status() Status {
	if r == nil {
		return StatusNone
	}
	return r.status
}

// ServerState returns the last query state reported by the server, such as
// "PLANNING", "RUNNING" or "FINISHED".
func (r *Result) ServerState() string {
	if r == nil {
		return ""
	}
	return r.lastState
}

// ServerError returns the accumulated error text reported by the server,
// one line per failure type and message, or an empty string.
func (r *Result) ServerError() string {
	if r == nil {
		return ""
	}
	return r.serverError
}

// ErrorCode returns the client-side error classification for the query.
func (r *Result) ErrorCode() ErrorCode {
	if r == nil {
		return ErrOK
	}
	return r.errorCode
}

// ClientError returns the description of the client-side error, or an
// empty string when the query had none.
func (r *Result) ClientError() string {
	return r.ErrorCode().Description()
}

// TransportError returns opaque detail reported by the http transport,
// or an empty string.
func (r *Result) TransportError() string {
	if r == nil {
		return ""
	}
	return r.transportErr
}

// ColumnCount returns the number of discovered columns. It is zero until
// the server delivers the column schema.
func (r *Result) ColumnCount() int {
	if r == nil {
		return 0
	}
	return len(r.columns)
}

// ColumnName returns the name of column i, or an empty string when i is
// out of range.
func (r *Result) ColumnName(i int) string {
	if r == nil || i < 0 || i >= len(r.columns) {
		return ""
	}
	return r.columns[i].name
}

// ColumnType returns the type of column i, or TypeUndefined when i is out
// of range.
func (r *Result) ColumnType(i int) ColumnType {
	if r == nil || i < 0 || i >= len(r.columns) {
		return TypeUndefined
	}
	return r.columns[i].typ
}

// ColumnTypeName returns the PRESTO_-prefixed type name of column i.
func (r *Result) ColumnTypeName(i int) string {
	return r.ColumnType(i).Name()
}

// ColumnData returns the current-row cell text of column i. Cell text is
// stable until the next row is delivered. Out-of-range indices return an
// empty string.
func (r *Result) ColumnData(i int) string {
	if r == nil || i < 0 || i >= len(r.columns) {
		return ""
	}
	return r.columns[i].data
}

// ColumnIsNull reports whether the current-row cell of column i is NULL.
// Out-of-range indices report true.
func (r *Result) ColumnIsNull(i int) bool {
	if r == nil || i < 0 || i >= len(r.columns) {
		return true
	}
	return r.columns[i].isNull
}

// Cancel requests cancellation of the query. It is safe to call from any
// goroutine, including from inside a row callback. The flag is sticky: the
// driver stops issuing requests, aborts any in-flight response within one
// chunk, and sends a single best-effort DELETE to the partial-cancel URI.
func (r *Result) Cancel() {
	if r != nil {
		r.cancelRequested.Store(true)
	}
}

// cancelled reports whether cancellation has been requested.
func (r *Result) cancelled() bool {
	return r.cancelRequested.Load()
}

// appendServerError adds one line to the accumulated server error text.
func (r *Result) appendServerError(line string) {
	if r.serverError == "" {
		r.serverError = line
		return
	}
	r.serverError = r.serverError + "\n" + line
}

// fireDescribe invokes the describe callback exactly once.
func (r *Result) fireDescribe() {
	if r.describeFired {
		return
	}
	r.describeFired = true
	if r.onDescribe != nil {
		r.onDescribe(r)
	}
}

// joinedColumnNames is a small diagnostic helper for the debug trace.
func (r *Result) joinedColumnNames() string {
	names := make([]string, len(r.columns))
	for i, c := range r.columns {
		names[i] = c.name
	}
	return strings.Join(names, ",")
}
