package model

import (
	"fmt"
)

// CascadePolicy decides how dependents are removed together with their parent.
type CascadePolicy string

// Constants for CascadePolicy
const (
	// CascadePerRecord deletes every dependent on its own so that per-record
	// delete hooks run
	CascadePerRecord CascadePolicy = "per_record"
	// CascadeBulk deletes all dependents with one filtered statement
	CascadeBulk CascadePolicy = "bulk"
)

// ParseCascadePolicy converts a string to a CascadePolicy; the empty string
// maps to CascadePerRecord.
func ParseCascadePolicy(v string) (CascadePolicy, error) {
	switch CascadePolicy(v) {
	case "", CascadePerRecord:
		return CascadePerRecord, nil
	case CascadeBulk:
		return CascadeBulk, nil
	}
	return "", fmt.Errorf("invalid cascade policy: %s", v)
}

// BatchPolicy decides what happens when one item of a batch fails.
type BatchPolicy string

// Constants for BatchPolicy
const (
	// BatchAtomic runs the whole batch in one transaction; the first failure
	// rolls everything back
	BatchAtomic BatchPolicy = "atomic"
	// BatchBestEffort processes every item in its own transaction and reports
	// the outcome per item
	BatchBestEffort BatchPolicy = "best_effort"
)

// ParseBatchPolicy converts a string to a BatchPolicy; the empty string maps
// to BatchAtomic.
func ParseBatchPolicy(v string) (BatchPolicy, error) {
	switch BatchPolicy(v) {
	case "", BatchAtomic:
		return BatchAtomic, nil
	case BatchBestEffort:
		return BatchBestEffort, nil
	}
	return "", fmt.Errorf("invalid batch policy: %s", v)
}

// DeleteResult counts the rows removed by a cascading delete.
type DeleteResult struct {
	Records       int64 `json:"records"`
	Dependents    int64 `json:"dependents"`
	Notifications int64 `json:"notifications"`
}

// Add sums up two DeleteResults.
func (r DeleteResult) Add(o DeleteResult) DeleteResult {
	return DeleteResult{
		Records:       r.Records + o.Records,
		Dependents:    r.Dependents + o.Dependents,
		Notifications: r.Notifications + o.Notifications,
	}
}

// BatchItemError is the failure of a single item of a batch.
type BatchItemError struct {
	ID  uint
	Err error
}

// Error implements the error interface
func (e BatchItemError) Error() string {
	return fmt.Sprintf("item %d: %s", e.ID, e.Err)
}

// Unwrap returns the underlying error
func (e BatchItemError) Unwrap() error {
	return e.Err
}

// BatchResult is the outcome of a batch delete.
type BatchResult struct {
	Policy  BatchPolicy      `json:"policy"`
	Deleted []uint           `json:"deleted"`
	Failed  []BatchItemError `json:"-"`
	Removed DeleteResult     `json:"removed"`
}
