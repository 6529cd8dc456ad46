// Package httpserver exposes the operational HTTP surface: a JSON health
// probe at /v1/healthz that reports the highest observed write slot, and the
// prometheus registry at /metrics.
//
// Example:
//
//	s := httpserver.New(rt, m.HTTPHandler(), logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":9090")
package httpserver
