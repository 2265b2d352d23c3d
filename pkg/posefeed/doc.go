// Package posefeed provides an embeddable client for motion-capture pose
// streams sent over UDP.
//
// A background receive loop decodes every datagram and publishes the latest
// pose of each tracked entity. The consumer reads that state from its own
// goroutine at its own cadence and drains queued notifications once per tick.
//
// # Basic Usage
//
//	client, err := posefeed.New(posefeed.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Dispose()
//
//	if err := client.Initialize(ctx, "192.168.1.20", 3883); err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
//	for range ticker.C {
//	    client.DrainOnce()
//	    if pose, ok := client.Latest("rigid1"); ok {
//	        render(pose)
//	    }
//	}
//
// # Notifications
//
// Implement [EventHandler] and pass it via [WithEventHandler]. Handlers are
// never called from the receive goroutine: notifications are queued and run
// by [Client.DrainOnce] on the caller's goroutine, in the order they occurred.
//
// # Lifecycle
//
// Initialize resolves the server and opens the socket. Start launches the
// receive loop; Stop joins it within Config.ShutdownTimeout and releases the
// socket. Start may be called again after Stop. Dispose releases everything
// and is safe to call more than once.
package posefeed
