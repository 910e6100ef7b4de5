// Package validate decides whether the best lookup candidate for a value may
// become a link. Validators see only the top candidate: a rejection discards
// the value, it never falls back to the runner-up.
package validate

import (
	"fmt"

	"github.com/ppiankov/powlink/internal/model"
)

// Validator accepts or rejects the top candidate for a literal of record.
// It returns the target URI to link when accepted.
type Validator interface {
	Validate(candidates []model.Candidate, literal, record string) (string, bool)
}

// Func adapts a function to Validator
type Func func(candidates []model.Candidate, literal, record string) (string, bool)

func (f Func) Validate(candidates []model.Candidate, literal, record string) (string, bool) {
	return f(candidates, literal, record)
}

// Top accepts the best candidate as is
var Top = Func(func(candidates []model.Candidate, _, _ string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0].URI, true
})

// TypeValidator accepts the top candidate only when one of its rdf:type
// values is in the allowed set
type TypeValidator struct {
	allowed map[string]bool
}

// NewTypeValidator creates a validator for the allowed types
func NewTypeValidator(types ...string) *TypeValidator {
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	return &TypeValidator{allowed: allowed}
}

func (v *TypeValidator) Validate(candidates []model.Candidate, _, _ string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	top := candidates[0]
	for _, t := range top.Types {
		if v.allowed[t] {
			return top.URI, true
		}
	}
	return "", false
}

// MinScore accepts the top candidate when its score reaches the threshold
type MinScore float64

func (m MinScore) Validate(candidates []model.Candidate, _, _ string) (string, bool) {
	if len(candidates) == 0 || candidates[0].Score < float64(m) {
		return "", false
	}
	return candidates[0].URI, true
}

func (m MinScore) String() string {
	return fmt.Sprintf("score >= %.2f", float64(m))
}

// All accepts only when every validator accepts the same target
func All(validators ...Validator) Validator {
	return Func(func(candidates []model.Candidate, literal, record string) (string, bool) {
		target := ""
		for _, v := range validators {
			uri, ok := v.Validate(candidates, literal, record)
			if !ok || (target != "" && uri != target) {
				return "", false
			}
			target = uri
		}
		if target == "" {
			return Top.Validate(candidates, literal, record)
		}
		return target, true
	})
}
