package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidTransition     = errors.New("invalid stage transition")
	ErrAuthorizationRequired = errors.New("authorization required")
	ErrGuideNotFound         = errors.New("guide not found")
	ErrTemporary             = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// Saga step indices. The creation saga reports failures by step so that
// remediation can target exactly what already committed.
const (
	SagaStepGuide = iota + 1
	SagaStepGarmentDetail
	SagaStepScan
)

// SagaStepError reports which creation step failed and which steps had
// already committed. GuideNumber is set from step 1's result whenever the
// guide itself was created, so operators can locate the headless guide.
type SagaStepError struct {
	Step        int
	Completed   []int
	GuideNumber string
	Err         error
}

func (e *SagaStepError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "guide creation step %d failed", e.Step)
	if len(e.Completed) > 0 {
		fmt.Fprintf(&b, " (steps %s already committed", joinSteps(e.Completed))
		if e.GuideNumber != "" {
			fmt.Fprintf(&b, ", guide %s exists and needs manual completion", e.GuideNumber)
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *SagaStepError) Unwrap() error { return e.Err }

func joinSteps(steps []int) string {
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		parts = append(parts, fmt.Sprintf("%d", s))
	}
	return strings.Join(parts, ",")
}
