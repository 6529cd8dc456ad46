// Package grpcserver hosts the geyser.v1.Geyser service and the standard gRPC
// health service. Streams are served from the broadcast hubs; the access
// token interceptor and the optional TLS identity are installed at
// construction.
//
// Example:
//
//	s, err := grpcserver.New(grpcserver.Options{Hubs: hubs, HighWater: &hw, Heartbeat: time.Second})
//	if err != nil {
//	    return err
//	}
//	if err := s.Listen("0.0.0.0:10000"); err != nil {
//	    return err
//	}
//	go s.Serve(nil)
//	defer s.Stop()
package grpcserver
