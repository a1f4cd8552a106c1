// Package nodes provides the small stateful building blocks the alerting
// logic is assembled from. Every node is a value type advanced by Update and
// holds no reference to a clock.
package nodes

import "time"

// Confirmation passes a signal once it has been stable for the delay. A
// rising node confirms a true input, a falling node confirms a false input.
// The opposite level is passed through immediately and restarts the timer.
type Confirmation struct {
	rising bool
	delay  time.Duration
	since  time.Duration
	output bool
}

func NewRisingConfirmation(delay time.Duration) Confirmation {
	return Confirmation{rising: true, delay: delay}
}

func NewFallingConfirmation(delay time.Duration) Confirmation {
	return Confirmation{rising: false, delay: delay}
}

func (n *Confirmation) Update(in bool, dt time.Duration) bool {
	if in == n.rising {
		n.since += dt
		if n.since >= n.delay {
			n.output = in
		}
	} else {
		n.since = 0
		n.output = in
	}
	return n.output
}

func (n *Confirmation) Output() bool { return n.output }

// Monostable outputs true for a fixed period after a matching edge. A
// retriggerable node restarts the period on every matching edge; otherwise
// edges are ignored until the period has run out.
type Monostable struct {
	rising        bool
	delay         time.Duration
	retriggerable bool
	remaining     time.Duration
	lastIn        bool
	seen          bool
	output        bool
}

func NewMonostable(rising bool, delay time.Duration) Monostable {
	return Monostable{rising: rising, delay: delay}
}

func NewRetriggerableMonostable(rising bool, delay time.Duration) Monostable {
	return Monostable{rising: rising, delay: delay, retriggerable: true}
}

func (n *Monostable) Update(in bool, dt time.Duration) bool {
	n.remaining = SaturatingSub(n.remaining, dt)
	if n.retriggerable || n.remaining == 0 {
		last := n.lastIn
		if !n.seen {
			last = !n.rising
		}
		if last != in && in == n.rising {
			n.remaining = n.delay
		}
	}
	n.lastIn, n.seen = in, true
	n.output = n.remaining > 0
	return n.output
}

func (n *Monostable) Output() bool { return n.output }

// Pulse is true for exactly one update after a matching edge. Before the
// first update a rising node assumes the input was low and a falling node
// assumes it was high.
type Pulse struct {
	rising bool
	lastIn bool
	seen   bool
	output bool
}

func NewPulse(rising bool) Pulse { return Pulse{rising: rising} }
func NewRisingPulse() Pulse      { return NewPulse(true) }
func NewFallingPulse() Pulse     { return NewPulse(false) }

func (n *Pulse) Update(in bool) bool {
	last := n.lastIn
	if !n.seen {
		last = !n.rising
	}
	switch {
	case n.output:
		n.output = false
	case n.rising:
		n.output = !last && in
	default:
		n.output = last && !in
	}
	n.lastIn, n.seen = in, true
	return n.output
}

func (n *Pulse) Output() bool { return n.output }

// Latch is a set/reset memory. When both inputs are asserted the node keeps
// the configured precedence.
type Latch struct {
	setWins bool
	output  bool
}

func NewLatch(setWins bool) Latch { return Latch{setWins: setWins} }

func (n *Latch) Update(set, reset bool) bool {
	switch {
	case set && reset:
		n.output = n.setWins
	case set:
		n.output = true
	case reset:
		n.output = false
	}
	return n.output
}

func (n *Latch) Output() bool { return n.output }

// SaturatingSub returns a-b, or zero if that would be negative.
func SaturatingSub(a, b time.Duration) time.Duration {
	if b >= a {
		return 0
	}
	return a - b
}
