package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/bft-labs/posefeed/internal/domain"
)

// Wire layout constants.
const (
	HeaderSize  = 24
	Alignment   = 8
	PosePayload = 64

	// TypeSenderDescription announces the name of the sender id in the header.
	TypeSenderDescription int32 = -1
	// TypeTypeDescription announces the name of the type id in the header's sender field.
	TypeTypeDescription int32 = -2

	// TrackerPoseTypeName is the announced name of the tracker position report type.
	TrackerPoseTypeName = "vrpn_Tracker Pos_Quat"

	// MaxNameLength bounds description names.
	MaxNameLength = 256
)

// Header is the fixed prefix of every message.
type Header struct {
	Length   uint32
	Sec      int32
	Usec     int32
	SenderID int32
	TypeID   int32
}

// Timestamp returns the header time in seconds.
func (h Header) Timestamp() float64 {
	return float64(h.Sec) + float64(h.Usec)/1e6
}

// PayloadLen returns the unpadded payload length.
func (h Header) PayloadLen() int {
	return int(h.Length) - HeaderSize
}

// parseHeader reads the header at the start of buf and checks the declared
// length against the bytes available.
func parseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes, header needs %d", domain.ErrTruncated, len(buf), HeaderSize)
	}
	h := Header{
		Length:   binary.BigEndian.Uint32(buf[0:4]),
		Sec:      int32(binary.BigEndian.Uint32(buf[4:8])),
		Usec:     int32(binary.BigEndian.Uint32(buf[8:12])),
		SenderID: int32(binary.BigEndian.Uint32(buf[12:16])),
		TypeID:   int32(binary.BigEndian.Uint32(buf[16:20])),
	}
	if h.Length < HeaderSize {
		return h, fmt.Errorf("%w: declared length %d below header size", domain.ErrTruncated, h.Length)
	}
	if uint64(h.Length) > uint64(len(buf)) {
		return h, fmt.Errorf("%w: declared length %d, %d bytes available", domain.ErrTruncated, h.Length, len(buf))
	}
	if h.Usec < 0 || h.Usec >= 1_000_000 {
		return h, fmt.Errorf("%w: microseconds %d", domain.ErrMalformedField, h.Usec)
	}
	return h, nil
}

// align rounds n up to the message alignment.
func align(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}
