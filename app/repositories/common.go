package repositories

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no props key exists for the slug. The props key is
	// the authoritative existence signal; leftover content or label markers
	// alone do not make a post.
	ErrNotFound = errors.New("post not found")

	// ErrInconsistent means the slug's keys are in a partially-written
	// state, such as props present with content absent. Retryable: the
	// state may be a save in flight, not corruption.
	ErrInconsistent = errors.New("post state inconsistent")
)

// Warning records a slug skipped during a listing and why. One corrupt post
// must not hide the rest of the index.
type Warning struct {
	Slug   string
	Reason string
}

// Save and delete steps, reported by StepError.
const (
	StepContent      = "content"
	StepProps        = "props"
	StepLabelAdd     = "label-add"
	StepLabelRemove  = "label-remove"
	StepPropsCleanup = "props-cleanup"
	StepPostKeys     = "post-keys"
	StepReverseIndex = "reverse-index"
)

// StepError reports a partial failure inside a multi-key save or delete:
// prior steps succeeded, the named step did not. Retrying the whole
// operation is safe since every step is idempotent.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
