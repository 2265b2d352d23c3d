// Package domain contains the core value types shared by the posefeed
// pipeline: pose samples, connection state and the error taxonomy.
//
// # Types
//
//   - [PoseSample]: one decoded rigid-body pose, immutable once constructed
//   - [ConnectionState]: the connection manager's view of the server link
//
// Nothing in this package performs I/O or holds locks.
package domain
