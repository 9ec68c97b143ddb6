package hal

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"xrshim/xrmath"
)

// poseRecord is the on-disk form of a Pose: a stream of CBOR maps with
// small integer keys, one per sampled frame.
type poseRecord struct {
	Timestamp   float64    `cbor:"1,keyasint"`
	Position    [3]float64 `cbor:"2,keyasint"`
	Orientation [4]float64 `cbor:"3,keyasint"`
}

var (
	poseEncMode cbor.EncMode
	poseDecMode cbor.DecMode
)

func init() {
	var err error
	poseEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("hal: CBOR encoder initialization failed: " + err.Error())
	}
	poseDecMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("hal: CBOR decoder initialization failed: " + err.Error())
	}
}

func recordFromPose(p Pose) poseRecord {
	return poseRecord{
		Timestamp:   p.Timestamp,
		Position:    [3]float64{p.Position.X, p.Position.Y, p.Position.Z},
		Orientation: [4]float64{p.Orientation.X, p.Orientation.Y, p.Orientation.Z, p.Orientation.W},
	}
}

func (r poseRecord) pose() Pose {
	return Pose{
		Timestamp:   r.Timestamp,
		Position:    xrmath.V3(r.Position[0], r.Position[1], r.Position[2]),
		Orientation: xrmath.Quat{X: r.Orientation[0], Y: r.Orientation[1], Z: r.Orientation[2], W: r.Orientation[3]},
	}
}

// PoseRecorder writes sampled poses as a CBOR sequence (RFC 8742).
type PoseRecorder struct {
	enc *cbor.Encoder
	n   int
}

func NewPoseRecorder(w io.Writer) *PoseRecorder {
	return &PoseRecorder{enc: poseEncMode.NewEncoder(w)}
}

func (r *PoseRecorder) Record(p Pose) error {
	if err := r.enc.Encode(recordFromPose(p)); err != nil {
		return err
	}
	r.n++
	return nil
}

// Count returns how many poses were written.
func (r *PoseRecorder) Count() int { return r.n }

// ReadPoses decodes a CBOR pose sequence until EOF.
func ReadPoses(rd io.Reader) ([]Pose, error) {
	dec := poseDecMode.NewDecoder(rd)
	var out []Pose
	for {
		var rec poseRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("pose %d: %w", len(out), err)
		}
		out = append(out, rec.pose())
	}
}

// PoseReplayer is a PoseSource over recorded poses.
type PoseReplayer struct {
	poses []Pose
	next  int
	loop  bool
}

func NewPoseReplayer(poses []Pose, loop bool) *PoseReplayer {
	return &PoseReplayer{poses: poses, loop: loop}
}

func (r *PoseReplayer) NextPose() (Pose, bool) {
	if len(r.poses) == 0 {
		return Pose{}, false
	}
	if r.next >= len(r.poses) {
		if !r.loop {
			return Pose{}, false
		}
		r.next = 0
	}
	p := r.poses[r.next]
	r.next++
	return p, true
}
