package problem

import "fmt"

// Sink receives problems. A session is bracketed by BeginCollecting and
// EndCollecting. Checkpoint marks that every problem accepted so far is final
// and that anything that follows comes from slower checks.
type Sink interface {
	BeginCollecting()
	Accept(p Problem)
	Checkpoint()
	EndCollecting()
}

// Collector is a Sink that records problems in memory.
type Collector struct {
	problems   []Problem
	checkpoint int
	collecting bool
	sessions   int
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{checkpoint: -1}
}

func (c *Collector) BeginCollecting() {
	if c.collecting {
		panic("problem: BeginCollecting called twice without EndCollecting")
	}
	c.collecting = true
	c.sessions++
	c.problems = nil
	c.checkpoint = -1
}

func (c *Collector) Accept(p Problem) {
	if !c.collecting {
		panic(fmt.Sprintf("problem: Accept outside a collecting session: %s", p))
	}
	c.problems = append(c.problems, p)
}

func (c *Collector) Checkpoint() {
	c.checkpoint = len(c.problems)
}

func (c *Collector) EndCollecting() {
	c.collecting = false
}

// Problems returns everything accepted during the last session.
func (c *Collector) Problems() []Problem {
	return append([]Problem(nil), c.problems...)
}

// Checkpointed reports whether Checkpoint was called during the last session.
func (c *Collector) Checkpointed() bool { return c.checkpoint >= 0 }

// Fast returns the problems accepted before the checkpoint.
func (c *Collector) Fast() []Problem {
	if c.checkpoint < 0 {
		return c.Problems()
	}
	return append([]Problem(nil), c.problems[:c.checkpoint]...)
}

// Slow returns the problems accepted after the checkpoint.
func (c *Collector) Slow() []Problem {
	if c.checkpoint < 0 {
		return nil
	}
	return append([]Problem(nil), c.problems[c.checkpoint:]...)
}

// Sessions returns how many sessions the collector has seen.
func (c *Collector) Sessions() int { return c.sessions }

// SinkFuncs adapts plain functions to a Sink. Nil fields are ignored.
type SinkFuncs struct {
	OnBegin      func()
	OnAccept     func(Problem)
	OnCheckpoint func()
	OnEnd        func()
}

func (s SinkFuncs) BeginCollecting() {
	if s.OnBegin != nil {
		s.OnBegin()
	}
}

func (s SinkFuncs) Accept(p Problem) {
	if s.OnAccept != nil {
		s.OnAccept(p)
	}
}

func (s SinkFuncs) Checkpoint() {
	if s.OnCheckpoint != nil {
		s.OnCheckpoint()
	}
}

func (s SinkFuncs) EndCollecting() {
	if s.OnEnd != nil {
		s.OnEnd()
	}
}
