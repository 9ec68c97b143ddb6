// Package xrmath provides the small set of vector, quaternion and 4x4 matrix
// helpers used by the session shim and the device adapters.
//
// Matrices are column-major (m[col*4+row]) in metres, which is the layout the
// device adapters report and the one WebGL-style consumers expect. Rigid
// transforms are rotation followed by translation; helpers that decompose a
// matrix assume it carries no scale.
package xrmath
