package capacity

// Policy decides whether a calendar day can admit one more appointment.
// It performs no I/O; the caller supplies the current counted total and
// the blackout flag for the day.
type Policy struct {
	MaxPerDay int
}

func NewPolicy(maxPerDay int) Policy {
	return Policy{MaxPerDay: maxPerDay}
}

// CanAdmit reports whether a day with currentCount pending+accepted
// appointments may take another one. A blackout day never admits.
func (p Policy) CanAdmit(currentCount int, isBlackout bool) bool {
	return !isBlackout && currentCount < p.MaxPerDay
}

// Remaining returns how many more appointments the day can take.
// A blackout day has zero remaining capacity regardless of count.
func (p Policy) Remaining(currentCount int, isBlackout bool) int {
	if isBlackout {
		return 0
	}
	left := p.MaxPerDay - currentCount
	if left < 0 {
		return 0
	}
	return left
}
