package serviceutil

import (
	"context"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"connectrpc.com/otelconnect"
	"github.com/mazen160/go-random"
)

// VerifyAccessTokenInterceptor rejects requests whose bearer token does not
// match token. An empty token disables the check.
func VerifyAccessTokenInterceptor(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token == "" || req.Spec().IsClient {
				return next(ctx, req)
			}
			header := req.Header().Get("Authorization")
			given, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || given != token {
				return nil, connect.NewError(
					connect.CodeUnauthenticated,
					fmt.Errorf("invalid access token"),
				)
			}
			return next(ctx, req)
		}
	}
}

// ProvideAccessTokenInterceptor sets the bearer token on outgoing requests.
func ProvideAccessTokenInterceptor(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token != "" && req.Spec().IsClient {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			return next(ctx, req)
		}
	}
}

// GenerateAccessToken returns a random alphanumeric token of the given
// length.
func GenerateAccessToken(length int) (string, error) {
	return random.String(length)
}

func NewConnectOtelInterceptor() (*otelconnect.Interceptor, error) {
	return otelconnect.NewInterceptor(
		otelconnect.WithTrustRemote(),
		otelconnect.WithoutServerPeerAttributes(),
	)
}
