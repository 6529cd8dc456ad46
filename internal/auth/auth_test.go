package auth

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	geyserv1 "github.com/rzbill/geyserstream/api/geyser/v1"
)

type stubStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s stubStream) Context() context.Context { return s.ctx }

func withToken(tok string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(MetadataKey, tok))
}

func TestStreamInterceptor(t *testing.T) {
	c := New("secret")
	info := &grpc.StreamServerInfo{FullMethod: geyserv1.Geyser_SubscribeSlotUpdates_FullMethodName, IsServerStream: true}
	cases := []struct {
		name string
		ctx  context.Context
		ok   bool
	}{
		{"correct", withToken("secret"), true},
		{"wrong", withToken("nope"), false},
		{"prefix", withToken("secre"), false},
		{"missing", context.Background(), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			err := c.StreamInterceptor()(nil, stubStream{ctx: tc.ctx}, info, func(any, grpc.ServerStream) error {
				called = true
				return nil
			})
			if tc.ok && (err != nil || !called) {
				t.Fatalf("expected accept, err=%v called=%v", err, called)
			}
			if !tc.ok {
				if status.Code(err) != codes.Unauthenticated || called {
					t.Fatalf("expected reject before handler, err=%v called=%v", err, called)
				}
			}
		})
	}
}

func TestUnaryInterceptorAndNonGeyserMethods(t *testing.T) {
	c := New("secret")
	handler := func(context.Context, any) (any, error) { return "ok", nil }

	_, err := c.UnaryInterceptor()(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: geyserv1.Geyser_GetHighestWriteSlot_FullMethodName}, handler)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	out, err := c.UnaryInterceptor()(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, handler)
	if err != nil || out != "ok" {
		t.Fatalf("health must not be gated: %v", err)
	}
}

func TestNoTokenAcceptsAll(t *testing.T) {
	c := New("")
	if c.Enabled() {
		t.Fatalf("empty token must disable the check")
	}
	if err := c.Check(context.Background()); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
