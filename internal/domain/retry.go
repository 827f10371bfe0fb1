package domain

import "time"

// RetryEntry is a pending re-attempt for an item whose generation failed.
// At most one entry exists per item; subsequent failures update it in place
// with an incremented attempt counter. A drain claim is a lease, not a
// permanent flag: InFlight holds only until ClaimedUntil, so an attempt
// abandoned by a crash or a failed failure-report becomes eligible again.
type RetryEntry struct {
	ItemID       string
	Attempt      int
	NextRunAt    time.Time
	LastError    string
	InFlight     bool
	ClaimedUntil time.Time
	UpdatedAt    time.Time
}
