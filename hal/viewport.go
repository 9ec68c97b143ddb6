package hal

// SplitViewport computes the viewport of eye on a w×h surface.
//
// Non-exclusive sessions render to the whole surface. Exclusive sessions
// split it along the horizontal axis, the left eye taking x in [0, w/2).
// Any other eye on an exclusive session yields false.
func SplitViewport(exclusive bool, eye Eye, w, h int, out *Viewport) bool {
	if out == nil || eye > EyeRight {
		return false
	}
	if !exclusive {
		*out = Viewport{Width: w, Height: h}
		return true
	}
	half := w / 2
	switch eye {
	case EyeLeft:
		*out = Viewport{X: 0, Width: half, Height: h}
	case EyeRight:
		*out = Viewport{X: half, Width: w - half, Height: h}
	default:
		return false
	}
	return true
}
