package protocol

import (
	"encoding/binary"
	"math"

	"github.com/bft-labs/posefeed/internal/domain"
)

// Encoder builds datagrams in the wire format Decode reads. The simulator and
// the tests use it to produce byte-exact tracker traffic.
type Encoder struct {
	buf []byte
}

// NewEncoder creates an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 512)}
}

// Bytes returns the encoded datagram. The slice is valid until the next call
// that modifies the encoder.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the encoded length in bytes.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Reset discards the encoded messages, keeping the buffer.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// Message appends a message with an arbitrary header and payload. Length is
// derived from the payload; the payload is padded to the message alignment.
func (e *Encoder) Message(h Header, payload []byte) *Encoder {
	h.Length = uint32(HeaderSize + len(payload))
	var hdr [HeaderSize]byte
	binary.BigEndian.PutUint32(hdr[0:4], h.Length)
	binary.BigEndian.PutUint32(hdr[4:8], uint32(h.Sec))
	binary.BigEndian.PutUint32(hdr[8:12], uint32(h.Usec))
	binary.BigEndian.PutUint32(hdr[12:16], uint32(h.SenderID))
	binary.BigEndian.PutUint32(hdr[16:20], uint32(h.TypeID))
	e.buf = append(e.buf, hdr[:]...)
	e.buf = append(e.buf, payload...)
	for pad := align(len(payload)) - len(payload); pad > 0; pad-- {
		e.buf = append(e.buf, 0)
	}
	return e
}

// SenderDescription appends an announcement naming sender id.
func (e *Encoder) SenderDescription(id int32, name string) *Encoder {
	return e.Message(Header{SenderID: id, TypeID: TypeSenderDescription}, descriptionPayload(name))
}

// TypeDescription appends an announcement naming type id.
func (e *Encoder) TypeDescription(id int32, name string) *Encoder {
	return e.Message(Header{SenderID: id, TypeID: TypeTypeDescription}, descriptionPayload(name))
}

// Pose appends a tracker position report for s using type id typeID.
// EntityID is not encoded; the receiver derives it from the sender id.
// Timestamp is carried at microsecond resolution, see SplitTimestamp.
func (e *Encoder) Pose(typeID int32, s domain.PoseSample) *Encoder {
	payload := make([]byte, PosePayload)
	binary.BigEndian.PutUint32(payload[0:4], uint32(s.Sensor))
	p := payload[8:]
	for i, v := range s.Position {
		binary.BigEndian.PutUint64(p[i*8:], math.Float64bits(v))
	}
	p = p[24:]
	for i, v := range s.Rotation {
		binary.BigEndian.PutUint64(p[i*8:], math.Float64bits(v))
	}
	sec, usec := SplitTimestamp(s.Timestamp)
	return e.Message(Header{Sec: sec, Usec: usec, SenderID: s.SenderID, TypeID: typeID}, payload)
}

// SplitTimestamp converts seconds to the wire's seconds/microseconds pair.
// The fraction is rounded to whole microseconds. Decoding computes
// sec + usec/1e6, which returns a microsecond-aligned input within one ULP,
// and exactly for values such as .25 or .5.
func SplitTimestamp(ts float64) (sec, usec int32) {
	whole := math.Floor(ts)
	micros := math.Round((ts - whole) * 1e6)
	if micros >= 1e6 {
		whole++
		micros = 0
	}
	return int32(whole), int32(micros)
}

func descriptionPayload(name string) []byte {
	n := len(name) + 1
	payload := make([]byte, 4+n)
	binary.BigEndian.PutUint32(payload[0:4], uint32(n))
	copy(payload[4:], name)
	return payload
}
