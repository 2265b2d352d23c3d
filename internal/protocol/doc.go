// Package protocol decodes VRPN tracker datagrams into pose samples.
//
// A datagram carries one or more messages back to back. Every message starts
// with a 24-byte big-endian header:
//
//	off  width  field
//	0    u32    total length (header + payload, unpadded)
//	4    i32    time, seconds
//	8    i32    time, microseconds
//	12   i32    sender id
//	16   i32    message type id
//	20   4      padding
//
// The payload is padded to a multiple of 8 bytes. Tracker position reports
// carry an i32 sensor, 4 bytes of padding, three f64 position components and
// four f64 quaternion components (x, y, z, w).
//
// Sender and type ids are assigned by the server and announced with
// description messages (types -1 and -2). [Decode] reports those announcements
// so the caller can maintain a [Dictionary] for the connection.
package protocol
