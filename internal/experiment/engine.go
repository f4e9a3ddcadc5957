// Package experiment orchestrates a parameter sweep: for every planned
// step it drives the actuator channels, runs the acquisition executable
// and files the produced data under a per-step folder.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Clonexy700/DAS-auto-experiment-app/internal/acquisition"
	"github.com/Clonexy700/DAS-auto-experiment-app/internal/monitoring"
	"github.com/Clonexy700/DAS-auto-experiment-app/internal/piezo"
	"github.com/Clonexy700/DAS-auto-experiment-app/internal/protocol"
	"github.com/Clonexy700/DAS-auto-experiment-app/internal/security"
	"github.com/Clonexy700/DAS-auto-experiment-app/internal/sweep"
	"github.com/Clonexy700/DAS-auto-experiment-app/internal/timeutil"
)

// State tracks the engine lifecycle. An engine runs at most once.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// ErrAlreadyRan is returned when Run is called on a non-idle engine.
var ErrAlreadyRan = errors.New("experiment engine already ran")

// ChannelLink is the slice of the serial link the engine drives.
type ChannelLink interface {
	ConfigureChannels(w protocol.Waveform, setpoints map[protocol.Channel]piezo.Setpoint) error
	Close() error
}

// Acquirer is the slice of the acquisition gateway the engine uses.
type Acquirer interface {
	Acquire(ctx context.Context) ([]string, error)
	Relocate(files []string, dst string) error
}

// Observer receives progress callbacks during a run. All methods are
// called from the goroutine executing Run.
type Observer interface {
	// OnProgress fires after each completed step.
	OnProgress(step, total int, sp piezo.Setpoint)

	// OnError fires once when a run fails.
	OnError(err error)

	// OnComplete fires once when a run ends without failing, whether it
	// finished or was stopped.
	OnComplete(state State)
}

// Recorder persists run metadata. Implementations must tolerate being
// called once per step for long sweeps.
type Recorder interface {
	RunStarted(totalSteps int, mode, waveform string) (string, error)
	StepRecorded(runID string, index int, sp piezo.Setpoint, dir string) error
	RunFinished(runID string, state string) error
}

// Engine executes one experiment. Construct with NewEngine and call Run
// once; Stop may be called concurrently to end the run at the next step
// boundary.
type Engine struct {
	link     ChannelLink
	acquirer Acquirer
	planner  *sweep.Planner
	mode     sweep.Mode
	waveform protocol.Waveform

	prefix    string
	outputDir string

	// SettleDelay is how long to wait after driving the channels before
	// starting acquisition, giving the actuators time to settle.
	SettleDelay time.Duration

	// Clock abstracts the settle wait. Defaults to the real clock.
	Clock timeutil.Clock

	// Observer and Recorder are optional.
	Observer Observer
	Recorder Recorder

	state        atomic.Int32
	stop         atomic.Bool
	shutdownOnce sync.Once
	folders      folderCounter
}

// NewEngine wires an engine over an open link and acquisition gateway.
// The prefix is sanitized before it is embedded in folder names.
func NewEngine(link ChannelLink, acq Acquirer, planner *sweep.Planner, mode sweep.Mode, w protocol.Waveform, prefix, outputDir string) *Engine {
	return &Engine{
		link:        link,
		acquirer:    acq,
		planner:     planner,
		mode:        mode,
		waveform:    w,
		prefix:      security.SanitizeFilename(prefix),
		outputDir:   outputDir,
		SettleDelay: time.Second,
		Clock:       timeutil.RealClock{},
		folders:     folderCounter{i: 1, j: 1},
	}
}

// State returns the engine lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Stop requests a cooperative stop. The run ends at the next step
// boundary; the step in flight completes normally.
func (e *Engine) Stop() {
	e.stop.Store(true)
}

// Run executes the full sweep. The hardware is always left safe: no
// matter how the run ends, every channel is zeroed and the link closed
// exactly once before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return ErrAlreadyRan
	}

	defer e.safeShutdown()

	steps, err := e.planner.Plan(e.mode)
	if err != nil {
		return e.fail(fmt.Errorf("planning sweep: %w", err))
	}
	total := len(steps)

	runID := ""
	if e.Recorder != nil {
		runID, err = e.Recorder.RunStarted(total, e.mode.String(), e.waveform.String())
		if err != nil {
			return e.fail(fmt.Errorf("recording run start: %w", err))
		}
	}

	monitoring.Logf("[experiment] starting %s sweep, %d steps, waveform %s", e.mode, total, e.waveform)

	for i, step := range steps {
		if e.stop.Load() || ctx.Err() != nil {
			return e.finish(runID, StateStopped)
		}

		if err := e.runStep(ctx, runID, i, total, step); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return e.finish(runID, StateStopped)
			}
			if e.Recorder != nil {
				if recErr := e.Recorder.RunFinished(runID, StateFailed.String()); recErr != nil {
					monitoring.Logf("[experiment] run log error: %v", recErr)
				}
			}
			return e.fail(err)
		}
	}

	return e.finish(runID, StateCompleted)
}

func (e *Engine) runStep(ctx context.Context, runID string, i, total int, step sweep.Step) error {
	if err := e.link.ConfigureChannels(e.waveform, step.Setpoints); err != nil {
		return fmt.Errorf("step %d: configuring channels: %w", i, err)
	}

	if e.SettleDelay > 0 {
		select {
		case <-e.Clock.After(e.SettleDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	files, err := e.acquirer.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("step %d: %w", i, err)
	}

	sp := e.planner.FirstActive(step)
	dir := filepath.Join(e.outputDir, e.prefix, e.folders.next(e.prefix, sp))
	if err := e.acquirer.Relocate(files, dir); err != nil {
		return fmt.Errorf("step %d: %w", i, err)
	}

	if e.Recorder != nil {
		if err := e.Recorder.StepRecorded(runID, i, sp, dir); err != nil {
			monitoring.Logf("[experiment] run log error: %v", err)
		}
	}
	if e.Observer != nil {
		e.Observer.OnProgress(i+1, total, sp)
	}
	return nil
}

// finish and fail shut the hardware down before any callback fires: by
// the time the observer hears the outcome the channels are zeroed and
// the link is closed.
func (e *Engine) finish(runID string, s State) error {
	e.state.Store(int32(s))
	e.safeShutdown()
	if e.Recorder != nil {
		if err := e.Recorder.RunFinished(runID, s.String()); err != nil {
			monitoring.Logf("[experiment] run log error: %v", err)
		}
	}
	if e.Observer != nil {
		e.Observer.OnComplete(s)
	}
	monitoring.Logf("[experiment] run %s", s)
	return nil
}

func (e *Engine) fail(err error) error {
	e.state.Store(int32(StateFailed))
	e.safeShutdown()
	if e.Observer != nil {
		e.Observer.OnError(err)
	}
	monitoring.Logf("[experiment] run failed: %v", err)
	return err
}

// safeShutdown zeroes every channel and closes the link. It runs exactly
// once per engine regardless of how the run ended.
func (e *Engine) safeShutdown() {
	e.shutdownOnce.Do(func() {
		zero := make(map[protocol.Channel]piezo.Setpoint, protocol.NumChannels)
		for _, ch := range protocol.Channels {
			zero[ch] = piezo.Setpoint{}
		}
		if err := e.link.ConfigureChannels(e.waveform, zero); err != nil {
			monitoring.Logf("[experiment] shutdown: zeroing channels: %v", err)
		}
		if err := e.link.Close(); err != nil {
			monitoring.Logf("[experiment] shutdown: closing link: %v", err)
		}
		monitoring.Logf("[experiment] safe shutdown complete")
	})
}

// folderCounter produces the three-part numbered folder names data files
// are filed under, starting at 1_1_1. The last digit rolls over at 9 into
// the middle digit, which rolls over at 9 into the first.
type folderCounter struct {
	i, j, k int
}

func (c *folderCounter) next(prefix string, sp piezo.Setpoint) string {
	c.k++
	if c.k > 9 {
		c.k = 1
		c.j++
		if c.j > 9 {
			c.j = 1
			c.i++
		}
	}
	return fmt.Sprintf("%d_%d_%d_%s f=%g a=%g b=%g", c.i, c.j, c.k, prefix, sp.Frequency, sp.Voltage, sp.Bias)
}

var _ Acquirer = (*acquisition.Gateway)(nil)
var _ ChannelLink = (*piezo.Link)(nil)
