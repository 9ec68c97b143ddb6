// xrposes writes and inspects the CBOR pose recordings the host device can
// record and replay.
//
//	xrposes synth --out walk.cbor --frames 600 --radius 1.5
//	xrposes dump --in walk.cbor
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/pflag"

	"xrshim/hal"
	"xrshim/xrmath"
)

func main() {
	if len(os.Args) < 2 {
		fatalf("usage: xrposes synth|dump [flags]")
	}
	var err error
	switch os.Args[1] {
	case "synth":
		err = synth(os.Args[2:])
	case "dump":
		err = dump(os.Args[2:], os.Stdout)
	default:
		fatalf("unknown mode: %s", os.Args[1])
	}
	if err != nil && !errors.Is(err, pflag.ErrHelp) {
		fatalf("%s: %v", os.Args[1], err)
	}
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}

func synth(args []string) error {
	var (
		out    string
		frames int
		radius float64
		height float64
		hz     float64
	)
	flags := pflag.NewFlagSet("synth", pflag.ContinueOnError)
	flags.StringVar(&out, "out", "", "output CBOR file")
	flags.IntVar(&frames, "frames", 600, "number of poses")
	flags.Float64Var(&radius, "radius", 1, "radius of the walked circle in metres")
	flags.Float64Var(&height, "height", 0, "vertical offset of the viewer in metres")
	flags.Float64Var(&hz, "hz", 60, "sample rate")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if out == "" {
		return errors.New("--out is required")
	}
	if frames <= 0 || hz <= 0 {
		return fmt.Errorf("frames (%d) and hz (%v) must be positive", frames, hz)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := writeCircle(hal.NewPoseRecorder(w), frames, radius, height, hz); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeCircle walks the viewer once around a circle, always facing its
// direction of travel.
func writeCircle(rec *hal.PoseRecorder, frames int, radius, height, hz float64) error {
	for i := 0; i < frames; i++ {
		a := 2 * math.Pi * float64(i) / float64(frames)
		p := hal.Pose{
			Timestamp:   float64(i) * 1000 / hz,
			Position:    xrmath.V3(radius*math.Cos(a), height, -radius*math.Sin(a)),
			Orientation: xrmath.QuatFromAxisAngle(xrmath.V3(0, 1, 0), a),
		}
		if err := rec.Record(p); err != nil {
			return fmt.Errorf("pose %d: %w", i, err)
		}
	}
	return nil
}

func dump(args []string, w io.Writer) error {
	var in string
	flags := pflag.NewFlagSet("dump", pflag.ContinueOnError)
	flags.StringVar(&in, "in", "", "input CBOR file")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if in == "" {
		return errors.New("--in is required")
	}
	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()

	poses, err := hal.ReadPoses(f)
	if err != nil {
		return err
	}
	return printPoses(w, poses)
}

func printPoses(w io.Writer, poses []hal.Pose) error {
	for i, p := range poses {
		o := p.Orientation
		if _, err := fmt.Fprintf(w, "%5d t=%9.2fms pos=(%.3f, %.3f, %.3f) rot=(%.3f, %.3f, %.3f, %.3f)\n",
			i, p.Timestamp, p.Position.X, p.Position.Y, p.Position.Z, o.X, o.Y, o.Z, o.W); err != nil {
			return err
		}
	}
	return nil
}
