package prestoclient

import (
	"github.com/easydatawarehousing/prestoclient/internal/jstream"
	"github.com/easydatawarehousing/prestoclient/internal/metrics"
)

// project is the jstream handler: it pattern-matches the path of every
// completed JSON value against the Presto reply schema and folds the
// protocol-meaningful ones into the result state. Unknown members fall
// through silently.
func (r *Result) project(path []jstream.Frame, name, value string, isNull bool) {
	depth := len(path)
	switch {
	case depth > 2 && path[depth-2].Name == "data":
		r.projectCell(value, isNull)
	case depth == 1 && name == "infoUri":
		r.infoURI = value
	case depth == 1 && name == "nextUri":
		r.nextURI = value
	case depth == 1 && name == "partialCancelUri":
		r.cancelURI = value
	case depth > 1 && path[depth-1].Name == "stats" && name == "state":
		r.lastState = value
	case depth > 2 && path[depth-2].Name == "error" && path[depth-1].Name == "failureInfo" && (name == "type" || name == "message"):
		r.appendServerError(value)
	case !r.columnsFrozen && depth > 2 && path[depth-2].Name == "columns":
		r.projectColumn(name, value)
	}
}

// projectCell writes one cell of the row under assembly and delivers the
// row when the last column is reached.
func (r *Result) projectCell(value string, isNull bool) {
	// a data element implies the column schema is complete
	if !r.columnsFrozen && len(r.columns) > 0 {
		r.columnsFrozen = true
		r.fireDescribe()
	}
	if len(r.columns) == 0 {
		return
	}
	r.curCol++
	if r.curCol >= len(r.columns) {
		r.curCol = -1
		return
	}
	col := r.columns[r.curCol]
	if isNull {
		col.isNull = true
		col.data = ""
	} else {
		col.isNull = false
		col.data = value
	}
	if r.curCol == len(r.columns)-1 {
		r.curCol = -1
		r.rowDelivered = true
		metrics.ObserveRow()
		if r.onRow != nil {
			r.onRow(r)
		}
	}
}

// projectColumn appends a column on "name" and types the newest column on
// "type". Members other than name and type are ignored.
func (r *Result) projectColumn(name, value string) {
	switch name {
	case "name":
		r.columns = append(r.columns, &column{name: value, typ: TypeUndefined})
	case "type":
		if n := len(r.columns); n > 0 {
			r.columns[n-1].typ = parseColumnType(value)
		}
	}
}
