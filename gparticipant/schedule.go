package gparticipant

// Step is the outcome of one participant iteration.
type Step struct {
	// The counter value this iteration ran as, always at least 1.
	Iteration int

	// The counter value carried into the next iteration.
	// Equal to Iteration except when the schedule wraps to zero.
	Counter int

	// Whether the participant resets its watchdog deadline this iteration.
	CheckIn bool

	// Whether the skip is announced as an upcoming timeout.
	Warn bool
}

// IndicatorOn is the indicator level written after the step.
func (s Step) IndicatorOn() bool {
	return s.Counter%2 == 1
}

// Next advances the schedule from counter, the value carried from the previous step
// (zero before the first step).
//
//	1-3    check in
//	4      skip, warn
//	5-10   skip
//	11-19  check in
//	20     skip
//	21-29  skip, warn
//	30     skip
//	31-39  wrap to zero and check in
//
// The wrap happens at 31, so 32 and above are never reached from zero.
func Next(counter int) Step {
	c := counter + 1
	s := Step{Iteration: c, Counter: c}

	switch {
	case c <= 3:
		s.CheckIn = true
	case c == 4:
		s.Warn = true
	case c > 10 && c < 20:
		s.CheckIn = true
	case c > 20 && c < 30:
		s.Warn = true
	case c > 30 && c < 40:
		s.Counter = 0
		s.CheckIn = true
	}

	return s
}
