package hal

import "sync"

type hostFramebuffer struct {
	mu     sync.Mutex
	width  int
	height int
	stride int
	buf    []byte
}

// NewFramebuffer returns an RGB565 host framebuffer.
func NewFramebuffer(width, height int) Framebuffer {
	return newHostFramebuffer(width, height)
}

func newHostFramebuffer(width, height int) *hostFramebuffer {
	stride := width * 2
	return &hostFramebuffer{
		width:  width,
		height: height,
		stride: stride,
		buf:    make([]byte, stride*height),
	}
}

func (f *hostFramebuffer) Width() int          { return f.width }
func (f *hostFramebuffer) Height() int         { return f.height }
func (f *hostFramebuffer) Format() PixelFormat { return PixelFormatRGB565 }
func (f *hostFramebuffer) StrideBytes() int    { return f.stride }
func (f *hostFramebuffer) Buffer() []byte      { return f.buf }
func (f *hostFramebuffer) Present() error      { return nil }

func (f *hostFramebuffer) ClearRGB(r, g, b uint8) {
	f.FillRect(Viewport{Width: f.width, Height: f.height}, r, g, b)
}

// FillRect paints vp clipped to the framebuffer bounds.
func (f *hostFramebuffer) FillRect(vp Viewport, r, g, b uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()

	x0, y0 := max(vp.X, 0), max(vp.Y, 0)
	x1, y1 := min(vp.X+vp.Width, f.width), min(vp.Y+vp.Height, f.height)
	if x0 >= x1 || y0 >= y1 {
		return
	}

	pixel := rgb565(r, g, b)
	lo := byte(pixel)
	hi := byte(pixel >> 8)
	for y := y0; y < y1; y++ {
		row := f.buf[y*f.stride:]
		for x := x0; x < x1; x++ {
			row[x*2] = lo
			row[x*2+1] = hi
		}
	}
}

func (f *hostFramebuffer) snapshotRGB565(dst []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy(dst, f.buf)
}

func (f *hostFramebuffer) pixelAt(x, y int) uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := y*f.stride + x*2
	return uint16(f.buf[i]) | uint16(f.buf[i+1])<<8
}

func rgb565(r, g, b uint8) uint16 {
	rr := uint16(r>>3) & 0x1F
	gg := uint16(g>>2) & 0x3F
	bb := uint16(b>>3) & 0x1F
	return (rr << 11) | (gg << 5) | bb
}

func rgb888From565(p uint16) (r, g, b uint8) {
	rr := (p >> 11) & 0x1F
	gg := (p >> 5) & 0x3F
	bb := p & 0x1F

	r = uint8((rr * 255) / 31)
	g = uint8((gg * 255) / 63)
	b = uint8((bb * 255) / 31)
	return r, g, b
}
