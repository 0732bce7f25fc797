package box

import "time"

// testStep lights the listed indicators for dur; an empty list turns all of
// them off.
type testStep struct {
	on  []int
	dur time.Duration
}

type selfTest struct {
	active bool
	steps  []testStep
	idx    int
	since  time.Time
}

// StartSelfTest flashes every status indicator: each one alone, then all
// together, then a quick triple flash. The test runs across ticks; puzzle
// updates continue, only indicator driving is taken over for its duration.
func (c *Coordinator) StartSelfTest() {
	c.Lock()
	defer c.Unlock()

	if !c.began || c.selfTest.active {
		return
	}

	steps := make([]testStep, 0, 2*len(c.indicators)+8)

	for i := range c.indicators {
		steps = append(steps,
			testStep{on: []int{i}, dur: 500 * time.Millisecond},
			testStep{dur: 200 * time.Millisecond},
		)
	}

	all := make([]int, len(c.indicators))
	for i := range all {
		all[i] = i
	}

	steps = append(steps,
		testStep{on: all, dur: time.Second},
		testStep{dur: 500 * time.Millisecond},
	)

	for i := 0; i < 3; i++ {
		steps = append(steps,
			testStep{on: all, dur: 200 * time.Millisecond},
			testStep{dur: 200 * time.Millisecond},
		)
	}

	c.selfTest = selfTest{active: true, steps: steps, idx: -1}
	c.logger.Printf("%s: indicator self-test started", c.name)
}

// SelfTestRunning reports whether a self-test is in progress.
func (c *Coordinator) SelfTestRunning() bool {
	c.Lock()
	defer c.Unlock()

	return c.selfTest.active
}

// updateSelfTest advances the test and reports whether it owns the
// indicators this tick. Callers hold the lock.
func (c *Coordinator) updateSelfTest(now time.Time) bool {
	t := &c.selfTest

	if !t.active {
		return false
	}

	if t.idx >= 0 && now.Sub(t.since) < t.steps[t.idx].dur {
		return true
	}

	t.idx++
	t.since = now

	if t.idx >= len(t.steps) {
		t.active = false
		c.logger.Printf("%s: indicator self-test complete", c.name)

		return false
	}

	c.applyTestStep(t.steps[t.idx])

	return true
}

func (c *Coordinator) applyTestStep(s testStep) {
	for i := range c.indicators {
		_ = c.indicators[i].Set(false)
	}

	for _, i := range s.on {
		_ = c.indicators[i].Set(true)
	}
}
