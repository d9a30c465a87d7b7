package logic

// HoldSpec is the hold configuration captured when a press starts.
type HoldSpec struct {
	// Enabled is false when no hold callback is registered.
	Enabled bool
	// Duration is HoldEverySecond or a fixed second count.
	Duration int
}

// Cycle tracks one press from the moment it is detected until release.
//
// The monitor calls Tick once per poll interval before waiting for the
// release. Tick reports the new elapsed count and whether the hold callback
// is due if that wait times out. When the wait sees the release, Completed
// gives the number of whole seconds the button stayed down.
type Cycle struct {
	hold    HoldSpec
	elapsed int
}

// NewCycle starts a press cycle with elapsed = 0.
func NewCycle(hold HoldSpec) *Cycle {
	return &Cycle{hold: hold}
}

// Tick advances the cycle by one poll interval.
func (c *Cycle) Tick() (elapsed int, fireHold bool) {
	c.elapsed++
	return c.elapsed, c.holdDue()
}

// Elapsed returns the current elapsed counter.
func (c *Cycle) Elapsed() int {
	return c.elapsed
}

// Completed returns the last fully completed hold second. It is meant to be
// called after a Tick whose wait observed the release.
func (c *Cycle) Completed() int {
	if c.elapsed == 0 {
		return 0
	}
	return c.elapsed - 1
}

func (c *Cycle) holdDue() bool {
	if !c.hold.Enabled {
		return false
	}
	if c.hold.Duration == HoldEverySecond {
		return true
	}
	return c.elapsed == c.hold.Duration
}
