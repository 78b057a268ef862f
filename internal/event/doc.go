// Package event provides the pub-sub bus that carries task lifecycle and
// progress updates from the runner to every observer: the terminal view,
// the HTTP/websocket API and the state snapshot writer.
//
// # Main Types
//
//   - [Event]: interface implemented by all events (EventType, Timestamp)
//   - [Bus]: synchronous dispatcher with explicit Subscribe/Unsubscribe
//   - [TaskStateEvent], [TaskProgressEvent], [NotificationEvent]
//
// # Thread Safety
//
// [Bus] is safe for concurrent use. Handlers are called synchronously on the
// publishing goroutine and are protected against panics. Handlers that may
// block (network clients) must hand events off to their own goroutine.
//
// # Basic Usage
//
//	bus := event.NewBus(logger)
//	id := bus.Subscribe(event.TypeTaskState, func(e event.Event) {
//	    st := e.(event.TaskStateEvent)
//	    fmt.Println(st.Task.PackageID, st.State)
//	})
//	defer bus.Unsubscribe(id)
package event
