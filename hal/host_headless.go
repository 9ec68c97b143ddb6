package hal

import (
	"context"
	"fmt"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Hz    int
	Ticks uint64
}

// RunHeadless runs the application without opening a window.
func RunHeadless(ctx context.Context, cfg HostConfig, newApp func(*Host) func() error, hcfg HeadlessConfig) error {
	if hcfg.Hz <= 0 {
		hcfg.Hz = 60
	}

	h := NewHost(cfg)
	step := newApp(h)

	d := time.Second / time.Duration(hcfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", hcfg.Hz)
	}
	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := h.step(step); err != nil {
				return err
			}
			tick++
			if hcfg.Ticks > 0 && tick >= hcfg.Ticks {
				return nil
			}
		}
	}
}
