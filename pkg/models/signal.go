package models

import "time"

// Signal is one day's balanced long/short ticker selection.
// Long and Short always have equal length; both sides are capped at 5.
type Signal struct {
	Date  time.Time `json:"date"`
	Long  []string  `json:"long"`
	Short []string  `json:"short"`
}

// Empty reports whether the signal carries no positions
func (s *Signal) Empty() bool {
	return len(s.Long) == 0 && len(s.Short) == 0
}

// Balanced reports the hard gross-exposure invariant
func (s *Signal) Balanced() bool {
	return len(s.Long) == len(s.Short)
}
