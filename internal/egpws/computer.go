package egpws

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/sweeney/egpwc/internal/nodes"
)

// DefaultPowerHoldover is how long the computer rides through a power
// interruption without losing its runtime.
const DefaultPowerHoldover = 200 * time.Millisecond

// Computer is the line replaceable unit around a Runtime. It owns the power
// holdover, the failure state and the two values kept in non-volatile
// memory across a restart.
type Computer struct {
	cfg     Config
	powered bool
	failed  bool
	hold    nodes.Confirmation
	runtime *Runtime

	nvmOnGround bool
	nvmPhase    FlightPhase

	discrete DiscreteOutputs
	bus      BusOutputs

	logger *log.Logger
}

// NewComputer returns a computer. When powered at start the runtime is
// already running, with the phase implied by onGround.
func NewComputer(cfg Config, holdover time.Duration, powered, onGround bool) *Computer {
	phase := Approach
	if onGround {
		phase = Takeoff
	}
	c := &Computer{
		cfg:         cfg,
		powered:     powered,
		hold:        nodes.NewFallingConfirmation(holdover),
		nvmOnGround: onGround,
		nvmPhase:    phase,
		discrete:    UnpoweredDiscreteOutputs(),
	}
	if powered {
		c.runtime = NewRunning(cfg, onGround, phase)
	}
	return c
}

func (c *Computer) SetLogger(l *log.Logger) {
	c.logger = l
	if c.runtime != nil {
		c.runtime.SetLogger(l)
	}
}

// RestoreNVM overwrites the non-volatile memory used by the next runtime
// start. A running runtime is not affected.
func (c *Computer) RestoreNVM(onGround bool, phase FlightPhase) {
	c.nvmOnGround, c.nvmPhase = onGround, phase
}

// SetPowered sets the state of the supply bus.
func (c *Computer) SetPowered(p bool) { c.powered = p }

// SetFailed injects or clears an internal failure.
func (c *Computer) SetFailed(f bool) { c.failed = f }

// Update advances the computer by dt.
func (c *Computer) Update(dt time.Duration, in *Inputs) {
	alive := c.hold.Update(c.powered, dt)

	if c.failed || !alive {
		if c.runtime != nil {
			c.nvmOnGround = c.runtime.OnGround()
			c.nvmPhase = c.runtime.FlightPhase()
			c.runtime = nil
			if c.logger != nil {
				c.logger.Info("runtime lost", "failed", c.failed, "on_ground", c.nvmOnGround, "phase", c.nvmPhase)
			}
		}
		c.discrete = UnpoweredDiscreteOutputs()
		c.bus = BusOutputs{}
		return
	}
	if !c.powered {
		// inside the holdover: state is frozen
		return
	}

	if c.runtime == nil {
		c.runtime = New(c.cfg, c.nvmOnGround, c.nvmPhase)
		c.runtime.SetLogger(c.logger)
		if c.logger != nil {
			c.logger.Info("runtime starting", "self_test", c.cfg.SelfTest, "on_ground", c.nvmOnGround, "phase", c.nvmPhase)
		}
	}
	c.runtime.Update(dt, in)
	c.runtime.SetOutputs(&c.discrete, &c.bus)
}

// Outputs returns the discretes and bus words last driven.
func (c *Computer) Outputs() (DiscreteOutputs, BusOutputs) {
	return c.discrete, c.bus
}

// Runtime returns the running software, or nil while unpowered or failed.
func (c *Computer) Runtime() *Runtime { return c.runtime }

// AuralOutput returns the current aural warning, none without a runtime.
func (c *Computer) AuralOutput() AuralWarning {
	if c.runtime == nil {
		return AuralNone
	}
	return c.runtime.AuralOutput()
}
