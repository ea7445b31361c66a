package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyDataset is returned when an operation needs at least one
// transaction and the input slice has none.
var ErrEmptyDataset = errors.New("empty dataset")

// DataFormatError reports a raw input row that could not be converted into
// a Transaction. Row is the 1-based data row number, header excluded.
type DataFormatError struct {
	Row    int
	Field  string
	Reason string
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("row %d: field %q: %s", e.Row, e.Field, e.Reason)
}

// TransportError wraps a failure to reach the model provider or the graph
// database: the request never completed, as opposed to completing with a
// reply we could not use.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ResponseShapeError reports a model reply that arrived but does not decode
// into the structure the caller demanded.
type ResponseShapeError struct {
	Reason string
}

func (e *ResponseShapeError) Error() string {
	return "unexpected model response: " + e.Reason
}

// Plan stages used by GeneratedCodeError.
const (
	StageContext = "context"
	StagePlot    = "plot"
)

// GeneratedCodeError reports a model-produced analysis plan or plot spec
// that was rejected by validation or failed during execution. A context
// stage failure fails the turn; a plot stage failure only drops the chart.
type GeneratedCodeError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *GeneratedCodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s plan: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s plan: %s", e.Stage, e.Reason)
}

func (e *GeneratedCodeError) Unwrap() error { return e.Err }

// GraphQueryError reports a rejected or failed graph lookup. Callers treat
// any such failure as a signal to fall back to the in-memory path rather
// than surface it to the user.
type GraphQueryError struct {
	Reason string
	Err    error
}

func (e *GraphQueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("graph query: %s: %v", e.Reason, e.Err)
	}
	return "graph query: " + e.Reason
}

func (e *GraphQueryError) Unwrap() error { return e.Err }
