// Command das-experiment runs a piezo actuator parameter sweep, driving
// the external acquisition tool at every step and filing the data it
// produces.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Clonexy700/DAS-auto-experiment-app/internal/acquisition"
	"github.com/Clonexy700/DAS-auto-experiment-app/internal/config"
	"github.com/Clonexy700/DAS-auto-experiment-app/internal/experiment"
	"github.com/Clonexy700/DAS-auto-experiment-app/internal/monitoring"
	"github.com/Clonexy700/DAS-auto-experiment-app/internal/piezo"
	"github.com/Clonexy700/DAS-auto-experiment-app/internal/runlog"
	"github.com/Clonexy700/DAS-auto-experiment-app/internal/sweep"
	"github.com/Clonexy700/DAS-auto-experiment-app/internal/version"
)

var (
	configPath = flag.String("config", config.DefaultConfigPath, "Path to experiment config JSON")
	portFlag   = flag.String("port", "", "Override the serial port from the config")
	devMode    = flag.Bool("dev", false, "Run against a mock serial port instead of hardware")
	initConfig = flag.Bool("init-config", false, "Write a default config to -config and exit")
	showRuns   = flag.Bool("runs", false, "List recorded runs from the run log and exit")
	dryRun     = flag.Bool("dry-run", false, "Print the sweep plan without driving hardware")
	showVer    = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("das-experiment %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if *initConfig {
		if err := config.Default().Save(*configPath); err != nil {
			log.Fatalf("failed to write default config: %v", err)
		}
		log.Printf("wrote default config to %s", *configPath)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *portFlag != "" {
		cfg.SerialPort = *portFlag
	}

	if *showRuns {
		if cfg.RunLogPath == "" {
			log.Fatal("config has no runlog_path set")
		}
		if err := listRuns(cfg.RunLogPath); err != nil {
			log.Fatalf("failed to list runs: %v", err)
		}
		return
	}

	planner := sweep.NewPlanner(cfg.ChannelRanges())

	if *dryRun {
		if err := printPlan(planner, cfg.SweepMode()); err != nil {
			log.Fatalf("failed to plan sweep: %v", err)
		}
		return
	}

	link, err := openLink(cfg)
	if err != nil {
		log.Fatalf("failed to open serial link: %v", err)
	}

	gateway := acquisition.NewGateway(cfg.AcquireExe, cfg.StagingDir, cfg.NFiles, cfg.NRefls)

	engine := experiment.NewEngine(link, gateway, planner, cfg.SweepMode(),
		cfg.WaveformKind(), cfg.Prefix, cfg.OutputDir)
	engine.Observer = consoleObserver{}

	if cfg.RunLogPath != "" {
		store, err := runlog.Open(cfg.RunLogPath)
		if err != nil {
			log.Fatalf("failed to open run log: %v", err)
		}
		defer store.Close()
		engine.Recorder = store
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	// log inbound controller bytes while the experiment runs
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := link.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("serial monitor error: %v", err)
		}
	}()

	// a first signal requests a cooperative stop at the next step
	// boundary; a second signal falls through to default handling
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		stop()
		engine.Stop()
	}()

	err = engine.Run(context.Background())
	stop()
	wg.Wait()

	if err != nil {
		log.Fatalf("experiment failed: %v", err)
	}
	log.Printf("experiment %s", engine.State())
}

func openLink(cfg *config.ExperimentConfig) (*piezo.Link, error) {
	if *devMode {
		log.Print("dev mode: using mock serial port")
		return piezo.NewLink(piezo.NewTestableSerialPort()), nil
	}
	return piezo.Open(cfg.SerialPort, piezo.PortOptions{BaudRate: cfg.BaudRate})
}

func printPlan(planner *sweep.Planner, mode sweep.Mode) error {
	steps, err := planner.Plan(mode)
	if err != nil {
		return err
	}
	fmt.Printf("%s sweep, %d steps\n", mode, len(steps))
	for i, step := range steps {
		sp := planner.FirstActive(step)
		fmt.Printf("%4d: f=%g a=%g b=%g\n", i+1, sp.Frequency, sp.Voltage, sp.Bias)
	}
	return nil
}

func listRuns(path string) error {
	store, err := runlog.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	w := os.Stdout
	fmt.Fprintf(w, "%-36s  %-20s  %-10s  %-8s  %-10s  %s\n",
		"ID", "STARTED", "MODE", "WAVEFORM", "STATE", "STEPS")
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-20s  %-10s  %-8s  %-10s  %d\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Mode, r.Waveform, r.State, r.TotalSteps)
	}
	return nil
}

// consoleObserver reports run progress to the process log.
type consoleObserver struct{}

func (consoleObserver) OnProgress(step, total int, sp piezo.Setpoint) {
	monitoring.Logf("[experiment] step %d/%d done (f=%g a=%g b=%g)", step, total, sp.Frequency, sp.Voltage, sp.Bias)
}

func (consoleObserver) OnError(err error) {
	monitoring.Logf("[experiment] error: %v", err)
}

func (consoleObserver) OnComplete(state experiment.State) {
	monitoring.Logf("[experiment] finished: %s", state)
}
