package app

import (
	"log/slog"

	"xrshim/hal"
	"xrshim/xr"
)

// renderer paints one flat colour per view, shaded by the viewer height so
// movement is visible without a rendering pipeline.
type renderer struct {
	session *xr.Session
	space   *xr.ReferenceSpace
	fb      hal.Framebuffer
	log     *slog.Logger

	handle xr.FrameHandle
	frames uint64
}

var eyeTint = map[hal.Eye][3]uint8{
	hal.EyeNone:  {0x30, 0xC0, 0x30},
	hal.EyeLeft:  {0xE0, 0x40, 0x40},
	hal.EyeRight: {0x40, 0x60, 0xE0},
}

func (r *renderer) frame(_ float64, f *xr.Frame) {
	defer func() {
		if v := recover(); v != nil {
			r.log.Error("frame callback panicked", "session", r.session.ID(), "panic", v)
			r.fb.ClearRGB(0xFF, 0, 0)
		}
	}()
	r.handle = r.session.RequestFrame(r.frame)
	r.frames++

	pose, err := f.ViewerPose(r.space)
	if err != nil {
		r.log.Warn("viewer pose", "session", r.session.ID(), "err", err)
		return
	}
	if pose == nil {
		return
	}
	shade := heightShade(pose.Transform().Position().Y)
	for _, v := range pose.Views() {
		vp, ok := r.session.Viewport(v.Eye(), nil)
		if !ok {
			continue
		}
		tint := eyeTint[v.Eye()]
		r.fb.FillRect(vp, scale(tint[0], shade), scale(tint[1], shade), scale(tint[2], shade))
	}
}

// heightShade maps 0..2.5 m to 0.25..1.
func heightShade(y float64) float64 {
	t := y / 2.5
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return 0.25 + 0.75*t
}

func scale(c uint8, s float64) uint8 {
	return uint8(float64(c) * s)
}
