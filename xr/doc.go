// Package xr implements an immersive-session API on top of a hal.Device.
//
// A System owns every session created against one device. At most one
// session is exclusive (it owns the immersive display); any number of
// non-exclusive companion sessions render into their own surfaces. While an
// exclusive session presents, companions are suspended: they receive a blur
// event, stop ticking and keep at most one pending frame callback, which is
// replayed after the focus event once the exclusive session ends.
//
// Every frame callback receives a Frame that is valid only during the
// callback. Frame.ViewerPose projects the device pose sampled for that frame
// into a ReferenceSpace, applying the space's base transform and then its
// origin offset.
//
// The package is single-threaded: all calls, device callbacks included, must
// come from the goroutine that ticks the device.
package xr
