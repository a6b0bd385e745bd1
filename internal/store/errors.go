// Package store implements PostgreSQL persistence for alerts, job listings
// and the user slice the pipeline reads. All filtering beyond status and the
// creation-time lower bound happens in the match package; the store only
// narrows the candidate window.
package store

import "errors"

// ErrNotFound is returned when a record is missing or does not belong to the
// requesting user.
var ErrNotFound = errors.New("record not found")
