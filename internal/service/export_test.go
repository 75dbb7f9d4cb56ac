package service

import "time"

// SetClock replaces the tracking clock in tests.
func (s *TrackingService) SetClock(now func() time.Time) { s.now = now }
