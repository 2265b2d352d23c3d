package posefeed

// EventHandler receives client notifications. Every method runs on the
// goroutine that calls Client.DrainOnce.
type EventHandler interface {
	// OnConnected is called once for each successful Start.
	OnConnected()

	// OnConnectionLost is called once when the receive loop fails on its own.
	// A deliberate Stop or Dispose never triggers it.
	OnConnectionLost(reason string)

	// OnSampleUpdated is called for every sample published to the latest state.
	OnSampleUpdated(sample PoseSample)
}

// BaseEventHandler provides no-op implementations of all EventHandler methods.
// Embed it to implement only the notifications you need.
type BaseEventHandler struct{}

func (BaseEventHandler) OnConnected()                   {}
func (BaseEventHandler) OnConnectionLost(reason string) {}
func (BaseEventHandler) OnSampleUpdated(PoseSample)     {}
