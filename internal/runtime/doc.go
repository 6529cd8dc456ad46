// Package runtime wires configuration, ingest channels, broadcast hubs and
// the network servers into the serving side of one plugin lifetime.
//
// Open binds every listener synchronously so address and credential errors
// surface to the caller. Start launches the tasks under one errgroup. Close
// is a one-shot cancellation: open streams are cut rather than drained and
// the wait is bounded by the shutdown timeout.
//
// Example:
//
//	rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: logger})
//	if err != nil {
//	    return err
//	}
//	rt.Start()
//	defer rt.Close()
//	_ = rt.Channels().Slots.TrySend(update)
package runtime
