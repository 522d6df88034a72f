// Command kccsim runs characters through a test track headlessly and logs what they do.
//
// Every character walks along +X, optionally jumping at a fixed interval. The run can be
// recorded to a trace file, compared against an earlier recording, and retuned live by
// editing a tuning file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/akmonengine/kinematic"
	"github.com/akmonengine/kinematic/controller"
	"github.com/akmonengine/kinematic/track"
	"github.com/akmonengine/kinematic/trace"
	"github.com/akmonengine/kinematic/tuning"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	layout     = flag.String("layout", "course", "Track layout: "+strings.Join(track.Layouts, "|"))
	ticks      = flag.Int("ticks", 600, "Number of steps to run")
	rate       = flag.Float64("rate", 60, "Steps per simulated second")
	characters = flag.Int("characters", 1, "Number of characters, spawned side by side along Z")
	jumpEvery  = flag.Int("jump-every", 0, "Jump every N steps, 0 never jumps")
	workers    = flag.Int("workers", 1, "Goroutines ticking characters")
	realtime   = flag.Bool("realtime", false, "Pace steps at the step rate instead of running flat out")

	tuningPath = flag.String("tuning", "", "YAML tuning file, the embedded defaults when empty")
	watch      = flag.Bool("watch", false, "Reload the tuning file when it changes")

	recordPath = flag.String("record", "", "Write a trace of every step to this file")
	verifyPath = flag.String("verify", "", "Compare the run against a trace recorded earlier")

	statsAddr = flag.String("statsview", "", "Serve runtime charts on this address, e.g. localhost:18066")
	logLevel  = flag.String("log-level", "info", "Log level: debug|info|warn|error")
	logFormat = flag.String("log-format", "text", "Log format: text|json")
)

func main() {
	flag.Parse()

	logger, err := newLogger(*logLevel, *logFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("kccsim: log level %q: %w", level, err)
	}
	options := &slog.HandlerOptions{Level: lvl}

	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, options)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, options)), nil
	default:
		return nil, fmt.Errorf("kccsim: unknown log format %q", format)
	}
}

func loadTuning() (tuning.File, error) {
	if *tuningPath == "" {
		return tuning.Default(), nil
	}
	return tuning.Load(*tuningPath)
}

func run(logger *slog.Logger) error {
	if *ticks <= 0 || *rate <= 0 || *characters <= 0 {
		return errors.New("kccsim: ticks, rate and characters must be positive")
	}
	if *watch && *tuningPath == "" {
		return errors.New("kccsim: -watch needs -tuning")
	}

	if *statsAddr != "" {
		viewer.SetConfiguration(viewer.WithTheme(viewer.ThemeWesteros), viewer.WithAddr(*statsAddr))
		mgr := statsview.New()
		go mgr.Start()
		defer mgr.Stop()
		logger.Info("statsview listening", "addr", *statsAddr)
	}

	file, err := loadTuning()
	if err != nil {
		return err
	}

	world := kinematic.NewWorld(kinematic.DefaultCellSize, kinematic.DefaultCellCount)
	world.Workers = *workers
	world.Logger = logger
	subscribe(world, logger)

	builder := track.NewBuilder(world.NextBodyID)
	if err := track.Build(builder, *layout); err != nil {
		return err
	}
	if err := world.AddBodies(builder.Bodies()...); err != nil {
		return err
	}

	ctrl := controller.New(file.Controller())
	for i := 0; i < *characters; i++ {
		z := (float64(i) - float64(*characters-1)/2) * 1.5
		character, err := world.AddCharacter(mgl64.Vec3{0, 1, z}, ctrl)
		if err != nil {
			return err
		}
		character.Input.Direction = mgl64.Vec3{1, 0, 0}
	}
	logger.Info("world ready", "layout", *layout, "bodies", world.BodyCount(), "characters", *characters)

	var reloads <-chan tuning.File
	var reloadErrors <-chan error
	if *watch {
		watcher, err := tuning.NewWatcher(*tuningPath, tuning.DefaultDebounce)
		if err != nil {
			return fmt.Errorf("kccsim: watch %s: %w", *tuningPath, err)
		}
		defer watcher.Close()
		reloads, reloadErrors = watcher.Files, watcher.Errors
	}

	recording, err := newRecording(*recordPath)
	if err != nil {
		return err
	}
	defer recording.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	dt := 1 / *rate
	var pacer <-chan time.Time
	if *realtime {
		ticker := time.NewTicker(time.Duration(float64(time.Second) * dt))
		defer ticker.Stop()
		pacer = ticker.C
	}

	start := time.Now()
	for tick := 1; tick <= *ticks; tick++ {
		select {
		case <-stop:
			logger.Warn("interrupted", "tick", tick)
			return nil
		case f := <-reloads:
			if err := world.Configure(f.Controller()); err == nil {
				logger.Info("tuning reloaded", "path", *tuningPath)
			}
		case err := <-reloadErrors:
			logger.Warn("tuning reload failed", "error", err)
		default:
		}

		if *jumpEvery > 0 {
			jump := tick%*jumpEvery == 0
			for _, character := range world.Characters() {
				character.Input.Jump = jump
			}
		}

		if err := world.Step(dt); err != nil {
			return err
		}
		if err := recording.Record(trace.Capture(world)); err != nil {
			return err
		}

		if pacer != nil {
			<-pacer
		}
	}

	summarize(logger, world, time.Since(start))
	logger.Info("trace digest", "xxh3", fmt.Sprintf("%016x", recording.Digest()), "frames", recording.Frames())

	if *verifyPath != "" {
		return verify(logger, *verifyPath, recording)
	}
	return nil
}

func subscribe(world *kinematic.World, logger *slog.Logger) {
	world.Events.Subscribe(kinematic.LANDED, func(event kinematic.Event) {
		e := event.(kinematic.LandedEvent)
		logger.Info("landed", "character", e.Character, "ground", e.Ground, "slope", slope(e.Normal))
	})
	world.Events.Subscribe(kinematic.LEFT_GROUND, func(event kinematic.Event) {
		e := event.(kinematic.LeftGroundEvent)
		logger.Debug("left ground", "character", e.Character, "ground", e.Ground)
	})
	world.Events.Subscribe(kinematic.GROUND_CHANGED, func(event kinematic.Event) {
		e := event.(kinematic.GroundChangedEvent)
		logger.Debug("ground changed", "character", e.Character, "from", e.From, "to", e.To)
	})
	world.Events.Subscribe(kinematic.STEPPED_UP, func(event kinematic.Event) {
		e := event.(kinematic.SteppedUpEvent)
		logger.Info("stepped up", "character", e.Character, "height", e.Height)
	})
	world.Events.Subscribe(kinematic.JUMPED, func(event kinematic.Event) {
		e := event.(kinematic.JumpedEvent)
		logger.Debug("jumped", "character", e.Character)
	})
}

// slope returns the angle in degrees between normal and the world up axis
func slope(normal mgl64.Vec3) float64 {
	return math.Acos(min(max(normal.Y(), -1), 1)) * 180 / math.Pi
}

func summarize(logger *slog.Logger, world *kinematic.World, elapsed time.Duration) {
	for _, character := range world.Characters() {
		state := character.State
		logger.Info("character",
			"id", character.ID(),
			"position", state.Position,
			"speed", state.Velocity.Len(),
			"grounded", state.Grounded(),
		)
	}
	logger.Info("run complete", "ticks", world.Ticks(), "elapsed", elapsed)
}

// recording records to a file or, without a path, only digests the frames
type recording struct {
	*trace.Recorder
	file *os.File
}

func newRecording(path string) (*recording, error) {
	if path == "" {
		return &recording{Recorder: trace.NewRecorder(nil)}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("kccsim: record: %w", err)
	}
	return &recording{Recorder: trace.NewRecorder(file), file: file}, nil
}

func (r *recording) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

func verify(logger *slog.Logger, path string, recording *recording) error {
	if recording.file == nil {
		return errors.New("kccsim: -verify needs -record to compare against")
	}
	if err := recording.file.Sync(); err != nil {
		return err
	}

	expected, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("kccsim: verify: %w", err)
	}
	defer expected.Close()
	actual, err := os.Open(recording.file.Name())
	if err != nil {
		return fmt.Errorf("kccsim: verify: %w", err)
	}
	defer actual.Close()

	if err := trace.Compare(expected, actual); err != nil {
		var divergence *trace.Divergence
		if errors.As(err, &divergence) {
			logger.Error("run diverges from recording", "tick", divergence.Tick, "character", divergence.Character)
		}
		return err
	}
	logger.Info("run matches recording", "path", path)
	return nil
}
