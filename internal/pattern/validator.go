package pattern

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors.
var (
	ErrEmptyName      = errors.New("pattern name cannot be empty")
	ErrUnknownConcern = errors.New("unknown pattern concern")
	ErrInvalidRegex   = errors.New("pattern regex does not compile")
	ErrNoCaptureGroup = errors.New("pattern regex has no capture group")
)

// extracting concerns read a value out of the text and need a capture group.
var extracting = map[Concern]bool{
	ConcernAmount:       true,
	ConcernAccount:      true,
	ConcernMerchant:     true,
	ConcernBalance:      true,
	ConcernDate:         true,
	ConcernReceiptTotal: true,
}

// Validate checks every pattern and reports all problems found.
func Validate(patterns []Pattern) error {
	var errs []error
	for i, p := range patterns {
		if err := validatePattern(p); err != nil {
			errs = append(errs, fmt.Errorf("pattern %d (%s): %w", i, p.Name, err))
		}
	}
	return errors.Join(errs...)
}

func validatePattern(p Pattern) error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if !knownConcern(p.Concern) {
		return fmt.Errorf("%w: %q", ErrUnknownConcern, p.Concern)
	}
	re, err := compileExpr(p.Regex)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRegex, err)
	}
	if extracting[p.Concern] && re.NumSubexp() == 0 {
		return ErrNoCaptureGroup
	}
	return nil
}

func knownConcern(c Concern) bool {
	for _, known := range Concerns {
		if c == known {
			return true
		}
	}
	return false
}
