// Package auth checks the shared access token on geyser RPCs.
//
// Clients present the token in the "access-token" metadata entry. The check
// runs in interceptors, so a rejected stream never reaches the handler and
// no subscriber is allocated for it. With no token configured every call is
// accepted. Methods outside the geyser service, such as gRPC health, are not
// checked.
package auth

import (
	"context"
	"crypto/subtle"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	geyserv1 "github.com/rzbill/geyserstream/api/geyser/v1"
)

// MetadataKey is the metadata entry carrying the token.
const MetadataKey = "access-token"

var errUnauthenticated = status.Error(codes.Unauthenticated, "Access token is incorrect")

// Checker validates tokens against a configured secret.
type Checker struct {
	token  []byte
	prefix string
}

// New returns a checker for token. An empty token disables the check.
func New(token string) *Checker {
	return &Checker{token: []byte(token), prefix: "/" + geyserv1.ServiceName + "/"}
}

// Enabled reports whether a token is configured.
func (c *Checker) Enabled() bool { return len(c.token) > 0 }

// Check validates the token in ctx's incoming metadata.
func (c *Checker) Check(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	md, _ := metadata.FromIncomingContext(ctx)
	for _, v := range md.Get(MetadataKey) {
		if subtle.ConstantTimeCompare([]byte(v), c.token) == 1 {
			return nil
		}
	}
	return errUnauthenticated
}

func (c *Checker) guarded(method string) bool {
	return c.Enabled() && strings.HasPrefix(method, c.prefix)
}

// UnaryInterceptor rejects geyser unary calls without a valid token.
func (c *Checker) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if c.guarded(info.FullMethod) {
			if err := c.Check(ctx); err != nil {
				return nil, err
			}
		}
		return handler(ctx, req)
	}
}

// StreamInterceptor rejects geyser stream establishment without a valid
// token.
func (c *Checker) StreamInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if c.guarded(info.FullMethod) {
			if err := c.Check(ss.Context()); err != nil {
				return err
			}
		}
		return handler(srv, ss)
	}
}

// PerRPC returns call credentials that attach token to outgoing calls.
func PerRPC(token string, requireTLS bool) grpc.CallOption {
	return grpc.PerRPCCredentials(tokenCreds{token: token, tls: requireTLS})
}

type tokenCreds struct {
	token string
	tls   bool
}

func (t tokenCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{MetadataKey: t.token}, nil
}

func (t tokenCreds) RequireTransportSecurity() bool { return t.tls }
