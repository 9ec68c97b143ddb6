// Package config loads the host binary configuration.
//
// Configuration comes from a single YAML file named on the command line.
// Missing keys keep their defaults; flags applied afterwards override both.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"xrshim/hal"
	"xrshim/xrmath"
)

// Config is the complete host configuration.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Device  DeviceConfig  `yaml:"device"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
	Poses   PosesConfig   `yaml:"poses"`
}

// WindowConfig configures the host runner.
type WindowConfig struct {
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Headless bool   `yaml:"headless"`
	Hz       int    `yaml:"hz"`
	Ticks    uint64 `yaml:"ticks"`
}

// DeviceConfig configures the simulated display.
type DeviceConfig struct {
	// IPD is the interpupillary distance in metres.
	IPD float64 `yaml:"ipd"`
	// FOVDegrees is the symmetric half-angle field of view per eye.
	FOVDegrees float64 `yaml:"fov_degrees"`
	// FloorHeight, when positive, makes the device report a native floor
	// this far below the viewer origin.
	FloorHeight float64 `yaml:"floor_height"`
	// StageBounds is the floor polygon as [x, z] pairs.
	StageBounds        [][2]float64 `yaml:"stage_bounds"`
	DisableExclusive   bool         `yaml:"disable_exclusive"`
	RejectPresentation bool         `yaml:"reject_presentation"`
}

// SessionConfig configures the session system and the demo sessions.
type SessionConfig struct {
	EmulationHeight  float64 `yaml:"emulation_height"`
	DisableEmulation bool    `yaml:"disable_emulation"`
	DepthNear        float64 `yaml:"depth_near"`
	DepthFar         float64 `yaml:"depth_far"`
	// Space is the reference space type the demo renders in.
	Space          string `yaml:"space"`
	StartExclusive bool   `yaml:"start_exclusive"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PosesConfig names pose recording files.
type PosesConfig struct {
	Record string `yaml:"record"`
	Replay string `yaml:"replay"`
	Loop   bool   `yaml:"loop"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Window: WindowConfig{Width: 320, Height: 160, Hz: 60},
		Device: DeviceConfig{IPD: 0.064, FOVDegrees: 45},
		Session: SessionConfig{
			EmulationHeight: 1.6,
			DepthNear:       0.1,
			DepthFar:        1000,
			Space:           string(hal.SpaceFloorLevel),
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

var validSpaces = map[string]bool{
	string(hal.SpaceViewerLocal):      true,
	string(hal.SpacePositionDisabled): true,
	string(hal.SpaceFloorLevel):       true,
	string(hal.SpaceBoundedFloor):     true,
	string(hal.SpaceStage):            true,
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Window.Hz <= 0 {
		errs = append(errs, fmt.Errorf("window.hz %d must be positive", c.Window.Hz))
	}
	if c.Device.IPD < 0 {
		errs = append(errs, fmt.Errorf("device.ipd %v must not be negative", c.Device.IPD))
	}
	if c.Device.FOVDegrees <= 0 || c.Device.FOVDegrees >= 90 {
		errs = append(errs, fmt.Errorf("device.fov_degrees %v must be in (0, 90)", c.Device.FOVDegrees))
	}
	if n := len(c.Device.StageBounds); n > 0 && n < 3 {
		errs = append(errs, fmt.Errorf("device.stage_bounds needs at least 3 points, got %d", n))
	}
	if c.Session.DepthNear <= 0 || c.Session.DepthFar <= c.Session.DepthNear {
		errs = append(errs, fmt.Errorf("session depth range %v..%v is invalid", c.Session.DepthNear, c.Session.DepthFar))
	}
	if c.Session.EmulationHeight < 0 {
		errs = append(errs, fmt.Errorf("session.emulation_height %v must not be negative", c.Session.EmulationHeight))
	}
	if !validSpaces[c.Session.Space] {
		errs = append(errs, fmt.Errorf("session.space %q is not a reference space type", c.Session.Space))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	if c.Poses.Record != "" && c.Poses.Record == c.Poses.Replay {
		errs = append(errs, errors.New("poses.record and poses.replay name the same file"))
	}
	return errors.Join(errs...)
}

// SlogLevel parses the configured level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", l.Level, err)
	}
	return level, nil
}

// HostConfig converts the window and device sections for hal.
func (c Config) HostConfig() hal.HostConfig {
	half := c.Device.FOVDegrees * math.Pi / 180
	dev := hal.HostDeviceConfig{
		DisableExclusive:   c.Device.DisableExclusive,
		RejectPresentation: c.Device.RejectPresentation,
		IPD:                c.Device.IPD,
		FOV:                xrmath.FieldOfView{Up: half, Down: half, Left: half, Right: half},
	}
	if c.Device.FloorHeight > 0 {
		floor := xrmath.Mat4Translate(xrmath.V3(0, c.Device.FloorHeight, 0))
		dev.FloorTransform = &floor
	}
	for _, p := range c.Device.StageBounds {
		dev.StageBounds = append(dev.StageBounds, xrmath.V3(p[0], 0, p[1]))
	}
	return hal.HostConfig{Width: c.Window.Width, Height: c.Window.Height, Device: dev}
}
