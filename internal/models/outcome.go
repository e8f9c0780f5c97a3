package models

// Result is reconciliation result kind
type Result int

const (
	// ResultNoop means event was handled and nothing changed
	ResultNoop Result = iota
	// ResultMutated means event was handled and order ledger changed
	ResultMutated
	// ResultRetryable means event failed and should be redelivered
	ResultRetryable
	// ResultFatal means event failed and redelivery will not help
	ResultFatal
)

func (r Result) String() string {
	switch r {
	case ResultNoop:
		return "noop"
	case ResultMutated:
		return "mutated"
	case ResultRetryable:
		return "retryable"
	case ResultFatal:
		return "fatal"
	}
	return "unknown"
}

// Outcome is result of handling one payment event
type Outcome struct {
	Result  Result
	OrderID string
	Detail  string
	Err     error
}

// Noop builds handled no-op outcome
func Noop(orderID, detail string) Outcome {
	return Outcome{Result: ResultNoop, OrderID: orderID, Detail: detail}
}

// Mutated builds handled mutation outcome
func Mutated(orderID, detail string) Outcome {
	return Outcome{Result: ResultMutated, OrderID: orderID, Detail: detail}
}

// Retryable builds retryable failure outcome
func Retryable(detail string, err error) Outcome {
	return Outcome{Result: ResultRetryable, Detail: detail, Err: err}
}

// Fatal builds non-retryable failure outcome
func Fatal(detail string, err error) Outcome {
	return Outcome{Result: ResultFatal, Detail: detail, Err: err}
}
