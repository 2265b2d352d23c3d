package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/bft-labs/posefeed/internal/domain"
)

// Options configures how a datagram is interpreted.
type Options struct {
	// TrackerType is the type id treated as a tracker position report when the
	// server never announced a type named TrackerPoseTypeName.
	TrackerType int32
}

// Result holds everything decoded from one datagram.
type Result struct {
	// Samples are the decoded poses in stream order.
	Samples []domain.PoseSample

	// Descriptions are sender/type announcements in stream order.
	Descriptions []Description

	// Messages is the number of message headers walked.
	Messages int

	// Skipped counts messages of types this decoder does not interpret.
	Skipped int

	// Warnings counts messages that failed to decode.
	Warnings int

	// Err is the first decode failure, if any.
	Err error
}

func (r *Result) warn(err error) {
	r.Warnings++
	if r.Err == nil {
		r.Err = err
	}
}

// Decode walks every message in buf and returns the samples and descriptions
// it carries. It never reads beyond len(buf) and never retains buf.
//
// Decoding stops at the first structurally invalid message; everything decoded
// before it is still returned and the failure is counted in Result.Warnings.
// A tracker report with an invalid pose is dropped and counted, and the walk
// continues since its framing is intact. Messages of unknown type are skipped.
//
// The returned error is non-nil only when the first message is structurally
// invalid, in which case nothing could be decoded.
func Decode(buf []byte, names Lookup, opts Options) (Result, error) {
	var res Result
	ov := &overlay{base: names}

	off := 0
	for off < len(buf) {
		h, err := parseHeader(buf[off:])
		if err != nil {
			res.warn(err)
			if off == 0 {
				return res, err
			}
			return res, nil
		}
		res.Messages++
		payload := buf[off+HeaderSize : off+int(h.Length)]

		switch {
		case h.TypeID == TypeSenderDescription || h.TypeID == TypeTypeDescription:
			desc, err := parseDescription(h, payload)
			if err != nil {
				res.warn(err)
				break
			}
			ov.apply(desc)
			res.Descriptions = append(res.Descriptions, desc)

		case isTrackerType(h.TypeID, ov, opts):
			sample, err := parsePose(h, payload, ov)
			if errors.Is(err, domain.ErrTruncated) {
				res.warn(err)
				if off == 0 {
					return res, err
				}
				return res, nil
			}
			if err != nil {
				res.warn(err)
				break
			}
			res.Samples = append(res.Samples, sample)

		default:
			res.Skipped++
		}

		// The final message may omit its trailing pad.
		off += HeaderSize + align(h.PayloadLen())
	}
	return res, nil
}

func isTrackerType(id int32, names Lookup, opts Options) bool {
	if name, ok := names.TypeName(id); ok {
		return name == TrackerPoseTypeName
	}
	return id == opts.TrackerType
}

func parseDescription(h Header, payload []byte) (Description, error) {
	if len(payload) < 4 {
		return Description{}, fmt.Errorf("%w: description payload %d bytes", domain.ErrMalformedField, len(payload))
	}
	n := int(int32(binary.BigEndian.Uint32(payload[0:4])))
	if n <= 0 || n > MaxNameLength || n > len(payload)-4 {
		return Description{}, fmt.Errorf("%w: description name length %d", domain.ErrMalformedField, n)
	}
	name := payload[4 : 4+n]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	if len(name) == 0 {
		return Description{}, fmt.Errorf("%w: empty description name", domain.ErrMalformedField)
	}

	kind := SenderDescription
	if h.TypeID == TypeTypeDescription {
		kind = TypeDescription
	}
	return Description{Kind: kind, ID: h.SenderID, Name: string(name)}, nil
}

func parsePose(h Header, payload []byte, names Lookup) (domain.PoseSample, error) {
	if len(payload) < PosePayload {
		return domain.PoseSample{}, fmt.Errorf("%w: pose payload %d bytes, need %d", domain.ErrTruncated, len(payload), PosePayload)
	}

	sender, ok := names.SenderName(h.SenderID)
	if !ok {
		sender = fallbackSenderName(h.SenderID)
	}
	sensor := int32(binary.BigEndian.Uint32(payload[0:4]))

	s := domain.PoseSample{
		EntityID:  domain.EntityName(sender, sensor),
		SenderID:  h.SenderID,
		Sensor:    sensor,
		Timestamp: h.Timestamp(),
	}
	p := payload[8:]
	for i := range s.Position {
		s.Position[i] = readFloat(p[i*8:])
	}
	p = p[24:]
	for i := range s.Rotation {
		s.Rotation[i] = readFloat(p[i*8:])
	}

	if !s.Valid() {
		return domain.PoseSample{}, fmt.Errorf("%w: invalid pose for %s", domain.ErrMalformedField, s.EntityID)
	}
	return s, nil
}

func readFloat(b []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}
