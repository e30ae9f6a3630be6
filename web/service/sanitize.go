package service

import "github.com/microcosm-cc/bluemonday"

// Sanitizer strips executable markup from article bodies while keeping
// ordinary formatting. Output is a fixed point: sanitizing it again yields
// the same string.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.UGCPolicy()}
}

func (s *Sanitizer) Sanitize(body string) string {
	return s.policy.Sanitize(body)
}
