package hal

// HostConfig describes the host environment built by the runners.
type HostConfig struct {
	Width  int
	Height int
	Device HostDeviceConfig
}

// Host bundles the simulated device with the window-side resources.
type Host struct {
	Device      *HostDevice
	Framebuffer Framebuffer
	Keyboard    Keyboard

	fb  *hostFramebuffer
	kbd *hostKeyboard
}

// NewHost returns a host environment with a framebuffer of the configured
// size (320x160 when unset).
func NewHost(cfg HostConfig) *Host {
	if cfg.Width <= 0 {
		cfg.Width = 320
	}
	if cfg.Height <= 0 {
		cfg.Height = 160
	}
	fb := newHostFramebuffer(cfg.Width, cfg.Height)
	kbd := newHostKeyboard()
	return &Host{
		Device:      NewHostDevice(cfg.Device),
		Framebuffer: fb,
		Keyboard:    kbd,
		fb:          fb,
		kbd:         kbd,
	}
}

// step runs one display refresh: input, application, then device frames.
func (h *Host) step(app func() error) error {
	h.kbd.poll()
	if app != nil {
		if err := app(); err != nil {
			return err
		}
	}
	return h.Device.Tick()
}
