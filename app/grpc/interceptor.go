package grpc

import (
	"context"
	"strings"

	"github.com/vibast-solutions/ms-go-booking/app/entity"
	"github.com/vibast-solutions/ms-go-booking/app/middleware"

	"github.com/sirupsen/logrus"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type authenticator interface {
	Authenticate(ctx context.Context, tokenString string) (*entity.Account, error)
}

// AuthUnaryInterceptor resolves the "authorization: Bearer" metadata to the
// calling account. Calls without the metadata continue anonymously.
func AuthUnaryInterceptor(accounts authenticator) gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		header := authorizationFromMetadata(ctx)
		if header == "" {
			return handler(ctx, req)
		}

		tokenString, ok := middleware.BearerToken(header)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "invalid authorization metadata format")
		}

		caller, err := accounts.Authenticate(ctx, tokenString)
		if err != nil {
			if middleware.IsAuthError(err) {
				logrus.Debug("Invalid or expired access token (grpc)")
				return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
			}
			logrus.WithError(err).Error("Access token validation failed (grpc)")
			return nil, status.Error(codes.Internal, "internal server error")
		}

		return handler(middleware.WithCaller(ctx, caller), req)
	}
}

func authorizationFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
