// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

package merrors

import (
	"strings"
)

// Errors collects the failures of a step and of whatever cleanup followed it.
type Errors []error

// Add appends every non-nil error. Nested Errors are flattened.
func (es *Errors) Add(errs ...error) {
	for _, err := range errs {
		switch e := err.(type) {
		case nil:
		case Errors:
			*es = append(*es, e...)
		default:
			*es = append(*es, err)
		}
	}
}

// Err returns nil for an empty list, the only error for a list of one and the list otherwise.
func (es Errors) Err() error {
	switch len(es) {
	case 0:
		return nil
	case 1:
		return es[0]
	}
	return es
}

func (es Errors) Error() string {
	msgs := make([]string, 0, len(es))
	for _, err := range es {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}
