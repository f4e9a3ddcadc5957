package sweep

import (
	"fmt"

	"github.com/Clonexy700/DAS-auto-experiment-app/internal/piezo"
	"github.com/Clonexy700/DAS-auto-experiment-app/internal/protocol"
)

// maxSteps bounds a whole plan; the cartesian product of careless ranges
// grows fast and the hardware is driven one blocking acquisition at a time.
const maxSteps = 100000

// Mode selects how the per-channel ranges are combined.
type Mode int

const (
	// Sequential visits the full cartesian product of every active range,
	// channel-major with amplitude outermost and frequency innermost.
	Sequential Mode = iota
	// Parallel walks all ranges in lockstep; shorter ranges repeat their
	// final value until the longest range is exhausted.
	Parallel
)

func (m Mode) String() string {
	if m == Parallel {
		return "parallel"
	}
	return "sequential"
}

// ChannelRanges holds the three swept parameters of one channel.
type ChannelRanges struct {
	Amplitude RangeSpec `json:"amplitude"`
	Bias      RangeSpec `json:"bias"`
	Frequency RangeSpec `json:"frequency"`
}

// Active reports whether the channel participates in the sweep. A channel
// whose six range bounds are all exactly zero is held at zero for the whole
// run and contributes nothing to the combination count.
func (c ChannelRanges) Active() bool {
	return !(c.Amplitude.IsZero() && c.Bias.IsZero() && c.Frequency.IsZero())
}

// Step is one point of the parameter space: a setpoint for every channel.
// Steps are produced once by the planner and never mutated afterwards.
type Step struct {
	Setpoints map[protocol.Channel]piezo.Setpoint
}

// Planner produces the ordered sequence of sweep steps for one run. A
// planner is constructed per run and owned by the engine; there is no
// process-wide sweep state.
type Planner struct {
	channels [protocol.NumChannels]ChannelRanges
}

// NewPlanner creates a planner over the per-channel range configuration.
func NewPlanner(channels [protocol.NumChannels]ChannelRanges) *Planner {
	return &Planner{channels: channels}
}

// parameter identifies one swept dimension: a channel and one of its three
// physical quantities.
type parameter struct {
	channel protocol.Channel
	kind    int // 0 amplitude, 1 bias, 2 frequency
}

// dimensions collects the swept dimensions in plan order: channel-major,
// then amplitude, bias, frequency within a channel. Inactive channels are
// skipped entirely.
func (p *Planner) dimensions() ([]parameter, [][]float64) {
	var params []parameter
	var values [][]float64

	for _, ch := range protocol.Channels {
		ranges := p.channels[ch]
		if !ranges.Active() {
			continue
		}
		for kind, spec := range []RangeSpec{ranges.Amplitude, ranges.Bias, ranges.Frequency} {
			v := spec.Values()
			if len(v) == 0 {
				v = []float64{0}
			}
			params = append(params, parameter{channel: ch, kind: kind})
			values = append(values, v)
		}
	}
	return params, values
}

// Plan expands the configured ranges into the ordered steps of the run.
// Every returned step carries a setpoint for all three channels; inactive
// channels are pinned to zero.
func (p *Planner) Plan(mode Mode) ([]Step, error) {
	params, values := p.dimensions()

	if len(params) == 0 {
		// Nothing sweeps: a single all-zero step.
		return []Step{newStep(params, nil)}, nil
	}

	if mode == Parallel {
		return p.planParallel(params, values)
	}
	return p.planSequential(params, values)
}

// TotalSteps reports the plan length without materialising it.
func (p *Planner) TotalSteps(mode Mode) int {
	_, values := p.dimensions()
	if len(values) == 0 {
		return 1
	}

	if mode == Parallel {
		longest := 0
		for _, v := range values {
			if len(v) > longest {
				longest = len(v)
			}
		}
		return longest
	}

	total := 1
	for _, v := range values {
		total *= len(v)
	}
	return total
}

func (p *Planner) planSequential(params []parameter, values [][]float64) ([]Step, error) {
	total := 1
	for _, v := range values {
		total *= len(v)
		if total > maxSteps {
			return nil, fmt.Errorf("sweep would generate more than %d steps", maxSteps)
		}
	}

	steps := make([]Step, 0, total)
	combo := make([]float64, len(params))

	// Odometer walk with the last dimension fastest.
	repeat := make([]int, len(params))
	r := 1
	for dim := len(params) - 1; dim >= 0; dim-- {
		repeat[dim] = r
		r *= len(values[dim])
	}
	for i := 0; i < total; i++ {
		for dim := range params {
			combo[dim] = values[dim][(i/repeat[dim])%len(values[dim])]
		}
		steps = append(steps, newStep(params, combo))
	}
	return steps, nil
}

func (p *Planner) planParallel(params []parameter, values [][]float64) ([]Step, error) {
	longest := 0
	for _, v := range values {
		if len(v) > longest {
			longest = len(v)
		}
	}
	if longest > maxSteps {
		return nil, fmt.Errorf("sweep would generate more than %d steps", maxSteps)
	}

	steps := make([]Step, 0, longest)
	combo := make([]float64, len(params))
	for i := 0; i < longest; i++ {
		for dim, v := range values {
			if i < len(v) {
				combo[dim] = v[i]
			} else {
				combo[dim] = v[len(v)-1] // pad with the final value
			}
		}
		steps = append(steps, newStep(params, combo))
	}
	return steps, nil
}

// newStep assembles a Step from one combination row. Channels without swept
// dimensions stay at their zero setpoint.
func newStep(params []parameter, combo []float64) Step {
	setpoints := make(map[protocol.Channel]piezo.Setpoint, protocol.NumChannels)
	for _, ch := range protocol.Channels {
		setpoints[ch] = piezo.Setpoint{}
	}
	for dim, param := range params {
		sp := setpoints[param.channel]
		switch param.kind {
		case 0:
			sp.Voltage = combo[dim]
		case 1:
			sp.Bias = combo[dim]
		case 2:
			sp.Frequency = combo[dim]
		}
		setpoints[param.channel] = sp
	}
	return Step{Setpoints: setpoints}
}

// FirstActive returns the setpoint the step commands on the lowest-numbered
// active channel, used for naming output folders. An all-zero plan returns
// the channel 0 setpoint.
func (p *Planner) FirstActive(s Step) piezo.Setpoint {
	for _, ch := range protocol.Channels {
		if p.channels[ch].Active() {
			return s.Setpoints[ch]
		}
	}
	return s.Setpoints[0]
}
