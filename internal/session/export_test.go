package session

import "time"

// SetNow replaces the registry clock.
func (r *Registry) SetNow(fn func() time.Time) { r.now = fn }

// SetNow replaces the token clock.
func (s *TokenService) SetNow(fn func() time.Time) { s.now = fn }
