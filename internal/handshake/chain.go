package handshake

import "github.com/theanalyst/qclient-go/internal/resp"

// NewChain runs a linear list of handshakes in sequence, only reporting
// ValidComplete once every step has completed (spec.md §4.7's Chainer).
// A linear slice is used rather than a recursive composite, per
// DESIGN_NOTES in spec.md §9: the composite pattern adds nothing here.
func NewChain(steps ...*Handshake) *Handshake {
	c := &chainState{steps: steps}
	return &Handshake{
		ProvideHandshake: c.provide,
		ValidateResponse: c.validate,
		Restart:          c.restart,
	}
}

type chainState struct {
	steps   []*Handshake
	current int
}

func (c *chainState) provide() []string {
	if c.current >= len(c.steps) {
		return nil
	}
	return c.steps[c.current].ProvideHandshake()
}

func (c *chainState) validate(reply *resp.Reply) Result {
	if c.current >= len(c.steps) {
		return Invalid
	}
	result := c.steps[c.current].ValidateResponse(reply)
	switch result {
	case Invalid:
		return Invalid
	case ValidIncomplete:
		return ValidIncomplete
	case ValidComplete:
		c.current++
		if c.current >= len(c.steps) {
			return ValidComplete
		}
		return ValidIncomplete
	default:
		return Invalid
	}
}

func (c *chainState) restart() {
	c.current = 0
	for _, step := range c.steps {
		step.Restart()
	}
}
