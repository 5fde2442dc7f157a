package index

import (
	"fmt"
	"strings"
)

// CloseError aggregates every failure encountered while tearing down a set of
// resources. The first failure is the primary cause; failures from the
// remaining resources are recorded as suppressed causes rather than aborting
// the teardown.
type CloseError struct {
	// Primary is the first close failure encountered.
	Primary error

	// Suppressed holds subsequent failures in the order they occurred.
	Suppressed []error
}

// Error implements the error interface.
func (e *CloseError) Error() string {
	if len(e.Suppressed) == 0 {
		return e.Primary.Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%v (and %d more close failures:", e.Primary, len(e.Suppressed))
	for _, err := range e.Suppressed {
		sb.WriteString(" ")
		sb.WriteString(err.Error())
		sb.WriteString(";")
	}
	sb.WriteString(")")
	return sb.String()
}

// Unwrap returns the primary cause for error chain support.
func (e *CloseError) Unwrap() error {
	return e.Primary
}

// errAggregator collects close failures across a teardown pass.
// The zero value is ready to use.
type errAggregator struct {
	primary    error
	suppressed []error
}

// add records a failure. Nil errors are ignored.
func (a *errAggregator) add(err error) {
	if err == nil {
		return
	}
	if a.primary == nil {
		a.primary = err
	} else {
		a.suppressed = append(a.suppressed, err)
	}
}

// err returns the aggregated error, or nil if every close succeeded.
func (a *errAggregator) err() error {
	if a.primary == nil {
		return nil
	}
	return &CloseError{Primary: a.primary, Suppressed: a.suppressed}
}

// closeAll closes each non-nil closer in order, aggregating failures instead
// of stopping at the first one.
func closeAll(closers ...interface{ Close() error }) error {
	var agg errAggregator
	for _, c := range closers {
		if c == nil {
			continue
		}
		agg.add(c.Close())
	}
	return agg.err()
}
