package scheduler

import "time"

// SetNow replaces the scheduler clock.
func (s *Scheduler) SetNow(fn func() time.Time) { s.now = fn }
