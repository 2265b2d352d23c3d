package domain

import (
	"math"
	"strconv"
	"time"
)

// Quaternion squared-norm tolerance. Trackers quantize rotations on the wire,
// so a sample is accepted when |q|^2 lies within [0.81, 1.21] (|q| within 10%).
const (
	MinRotationNormSq = 0.81
	MaxRotationNormSq = 1.21
)

// PoseSample is a single rigid-body pose decoded from the tracker stream.
// Position and rotation are delivered in the units and axes of the wire format.
type PoseSample struct {
	// EntityID is the rigid-body identifier. Empty means unscoped.
	EntityID string

	// SenderID is the numeric sender the server assigned to the rigid body.
	SenderID int32

	// Sensor is the sensor index within the sender.
	Sensor int32

	// Position is x, y, z.
	Position [3]float64

	// Rotation is a unit quaternion in x, y, z, w order.
	Rotation [4]float64

	// Timestamp is the server time of the report in seconds.
	Timestamp float64
}

// Time converts Timestamp to a time.Time.
func (s PoseSample) Time() time.Time {
	sec, frac := math.Modf(s.Timestamp)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9)))
}

// Valid reports whether the sample's position is finite and its rotation is a
// finite quaternion within the accepted norm tolerance.
func (s PoseSample) Valid() bool {
	for _, v := range s.Position {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return ValidRotation(s.Rotation)
}

// ValidRotation reports whether q is finite and close enough to unit length.
func ValidRotation(q [4]float64) bool {
	var normSq float64
	for _, v := range q {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
		normSq += v * v
	}
	return normSq >= MinRotationNormSq && normSq <= MaxRotationNormSq
}

// EntityName builds the routing key for a sender/sensor pair. Sensor 0 maps to
// the bare sender name; other sensors are suffixed with ":<sensor>".
func EntityName(sender string, sensor int32) string {
	if sensor == 0 {
		return sender
	}
	return sender + ":" + strconv.FormatInt(int64(sensor), 10)
}
