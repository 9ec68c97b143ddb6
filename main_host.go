package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"xrshim/app"
	"xrshim/hal"
	"xrshim/internal/buildinfo"
	"xrshim/internal/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		configPath string
		headless   bool
		hz         int
		ticks      uint64
		exclusive  bool
		space      string
		record     string
		replay     string
		logLevel   string
		version    bool
	)
	flags := pflag.NewFlagSet("xrshim", pflag.ContinueOnError)
	flags.StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	flags.BoolVar(&headless, "headless", false, "run without a window")
	flags.IntVar(&hz, "hz", 0, "tick rate in headless mode")
	flags.Uint64Var(&ticks, "ticks", 0, "stop after N ticks in headless mode (0 = run forever)")
	flags.BoolVar(&exclusive, "exclusive", false, "start with an exclusive session")
	flags.StringVar(&space, "space", "", "reference space type to render in")
	flags.StringVar(&record, "record", "", "record sampled poses to this CBOR file")
	flags.StringVar(&replay, "replay", "", "replay poses from this CBOR file")
	flags.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	flags.BoolVar(&version, "version", false, "print the version and exit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if version {
		fmt.Println(buildinfo.Describe("xrshim"))
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if flags.Changed("headless") {
		cfg.Window.Headless = headless
	}
	if flags.Changed("hz") {
		cfg.Window.Hz = hz
	}
	if flags.Changed("ticks") {
		cfg.Window.Ticks = ticks
	}
	if flags.Changed("exclusive") {
		cfg.Session.StartExclusive = exclusive
	}
	if flags.Changed("space") {
		cfg.Session.Space = space
	}
	if flags.Changed("record") {
		cfg.Poses.Record = record
	}
	if flags.Changed("replay") {
		cfg.Poses.Replay = replay
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	log.Info("starting", "version", buildinfo.Short(), "headless", cfg.Window.Headless, "space", cfg.Session.Space)

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				log.Warn("close", "err", err)
			}
		}
	}()
	var sink hal.PoseSink
	if cfg.Poses.Record != "" {
		f, err := os.Create(cfg.Poses.Record)
		if err != nil {
			return fmt.Errorf("pose recording: %w", err)
		}
		closers = append(closers, f)
		sink = hal.NewPoseRecorder(f)
	}
	var source hal.PoseSource
	if cfg.Poses.Replay != "" {
		f, err := os.Open(cfg.Poses.Replay)
		if err != nil {
			return fmt.Errorf("pose replay: %w", err)
		}
		poses, err := hal.ReadPoses(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("pose replay %s: %w", cfg.Poses.Replay, err)
		}
		log.Info("replaying poses", "file", cfg.Poses.Replay, "count", len(poses), "loop", cfg.Poses.Loop)
		source = hal.NewPoseReplayer(poses, cfg.Poses.Loop)
	}

	appCfg := app.Config{
		Space:            hal.SpaceType(cfg.Session.Space),
		DisableEmulation: cfg.Session.DisableEmulation,
		EmulationHeight:  cfg.Session.EmulationHeight,
		DepthNear:        cfg.Session.DepthNear,
		DepthFar:         cfg.Session.DepthFar,
		StartExclusive:   cfg.Session.StartExclusive,
	}
	newApp := func(h *hal.Host) func() error {
		if sink != nil {
			h.Device.SetPoseSink(sink)
		}
		if source != nil {
			h.Device.SetPoseSource(source)
		}
		return app.NewWithConfig(h, appCfg, log)
	}

	if cfg.Window.Headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return hal.RunHeadless(ctx, cfg.HostConfig(), newApp, hal.HeadlessConfig{Hz: cfg.Window.Hz, Ticks: cfg.Window.Ticks})
	}
	return hal.RunWindow(cfg.HostConfig(), newApp)
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
