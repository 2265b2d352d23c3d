// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// # Port Interfaces
//
//   - [Transport]: resolves the server address and opens datagram connections
//   - [Conn]: one open datagram socket owned by the receive loop
//
// The application layer (internal/app) depends only on these interfaces.
// internal/adapters/udp implements them over UDP sockets; tests substitute
// in-memory fakes to force closes and transport errors mid-receive.
package ports
