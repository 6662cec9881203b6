// Package telemetrycapture streams telemetry out of a simulator's shared
// memory region.
//
// The producer (the simulator) owns a named shared mapping that it rewrites
// many times per second, plus a named event it signals whenever a new data
// buffer is ready. A Capture attaches to that region, polls it at a
// configurable rate, and publishes owned copies of what it finds as events
// on a bounded channel.
//
// # Quick Start
//
//	capture, err := telemetrycapture.NewCapture(telemetrycapture.Config{
//	    UpdateRate: 10,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer capture.Stop()
//
//	events, err := capture.Start(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	var catalog vars.Catalog
//	for ev := range events {
//	    switch ev.Kind {
//	    case telemetrycapture.EventCatalog:
//	        catalog = ev.Catalog
//	    case telemetrycapture.EventFrame:
//	        speed, _ := vars.Get[float32](catalog["Speed"], ev.Frame.Data)
//	        fmt.Println(speed)
//	    }
//	}
//
// # Events
//
// Each connection to the producer is a session with its own SessionID.
// Within a session events arrive in this order:
//
//   - EventCatalog once, before anything else
//   - EventSessionDocument whenever the document revision changes
//   - EventFrame whenever the freshest buffer's tick changes
//   - EventDisconnected once, when the producer clears its live bit
//
// A new session starts after the reconnect delay (10 seconds by default).
// While the producer is not running at all, the capture keeps retrying and
// publishes nothing.
//
// # Backpressure
//
// The event channel is bounded (4 events by default). When the consumer
// falls behind the capture blocks instead of dropping events, so frames
// are never lost or reordered. Cancel the context passed to Start, or call
// Stop, to end the capture; the channel is then closed.
//
// # Decoding
//
// Frame.Data holds the raw bytes of one data buffer. Use the vars package
// with the session's catalog to read typed values out of it.
package telemetrycapture
