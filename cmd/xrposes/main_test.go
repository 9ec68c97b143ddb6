package main

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"xrshim/hal"
)

func TestWriteCircleRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := writeCircle(hal.NewPoseRecorder(&buf), 4, 2, 0.5, 50); err != nil {
		t.Fatalf("writeCircle: %v", err)
	}
	poses, err := hal.ReadPoses(&buf)
	if err != nil {
		t.Fatalf("ReadPoses: %v", err)
	}
	if len(poses) != 4 {
		t.Fatalf("poses=%d", len(poses))
	}
	if p := poses[1]; math.Abs(p.Position.Z+2) > 1e-12 || p.Position.Y != 0.5 || p.Timestamp != 20 {
		t.Fatalf("pose 1=%+v", p)
	}

	var out bytes.Buffer
	if err := printPoses(&out, poses); err != nil {
		t.Fatalf("printPoses: %v", err)
	}
	if n := strings.Count(out.String(), "\n"); n != 4 {
		t.Fatalf("printed %d lines", n)
	}
}
