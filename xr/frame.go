package xr

import (
	"fmt"

	"xrshim/hal"
	"xrshim/xrmath"
)

type sampledView struct {
	eye  hal.Eye
	view xrmath.Mat4
}

// Frame is the snapshot handed to one frame callback. It is owned by its
// Session, refreshed every tick, and rejects queries once the callback
// returns.
type Frame struct {
	session *Session

	id        uint64
	active    bool
	timestamp float64

	hasPose bool
	pose    xrmath.Mat4
	views   []sampledView
}

// begin samples the device for a new tick.
func (f *Frame) begin(ts float64) {
	f.id++
	f.active = true
	f.timestamp = ts
	f.pose, f.hasPose = f.session.dev.BasePoseMatrix()
	f.views = f.views[:0]
	for _, eye := range f.session.Eyes() {
		f.views = append(f.views, sampledView{eye: eye, view: f.session.dev.BaseViewMatrix(eye)})
	}
}

func (f *Frame) ID() uint64         { return f.id }
func (f *Frame) Active() bool       { return f.active }
func (f *Frame) Timestamp() float64 { return f.timestamp }
func (f *Frame) Session() *Session  { return f.session }

// ViewerPose projects the sampled viewer pose into space. It returns nil
// without error while tracking is lost.
func (f *Frame) ViewerPose(space *ReferenceSpace) (*ViewerPose, error) {
	if !f.active {
		return nil, fmt.Errorf("%w: frame %d is not active", ErrInvalidState, f.id)
	}
	if space == nil || space.session != f.session.id {
		return nil, fmt.Errorf("%w: reference space belongs to another session", ErrInvalidState)
	}
	if !f.hasPose {
		return nil, nil
	}

	vp := &ViewerPose{transform: RigidTransformFromMatrix(space.applyPose(f.pose))}
	for _, sv := range f.views {
		view := space.applyView(sv.view)
		vp.views = append(vp.views, View{
			eye:        sv.eye,
			viewMatrix: view,
			projection: f.session.dev.ProjectionMatrix(sv.eye),
			transform:  RigidTransformFromMatrix(view.Inverse()),
		})
	}
	return vp, nil
}

// ViewerPose is the viewer's pose in a reference space plus its views.
type ViewerPose struct {
	transform RigidTransform
	views     []View
}

func (p *ViewerPose) Transform() RigidTransform { return p.transform }

// Views returns the per-eye views in rendering order.
func (p *ViewerPose) Views() []View { return p.views }

// View is one eye of a ViewerPose.
type View struct {
	eye        hal.Eye
	viewMatrix xrmath.Mat4
	projection xrmath.Mat4
	transform  RigidTransform
}

func (v View) Eye() hal.Eye { return v.eye }

// ViewMatrix maps reference space coordinates to eye coordinates.
func (v View) ViewMatrix() xrmath.Mat4 { return v.viewMatrix }

// ProjectionMatrix is the device-reported projection for this eye.
func (v View) ProjectionMatrix() xrmath.Mat4 { return v.projection }

// Transform is the eye pose, the inverse of ViewMatrix.
func (v View) Transform() RigidTransform { return v.transform }
