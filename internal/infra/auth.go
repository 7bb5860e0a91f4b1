package infra

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/talentmatch/messaging-service/internal/config"
	api "github.com/talentmatch/messaging-service/internal/generated"
)

// HeaderUserUUID is set by the gateway after it authenticated the caller.
const HeaderUserUUID = "X-User-Uuid"

const (
	metadataUUID = "uuid"
	healthPrefix = "/grpc.health.v1.Health/"
)

func AuthInterceptorHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userUUID := strings.TrimSpace(r.Header.Get(HeaderUserUUID))
		if userUUID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(api.Error{Error: "missing user uuid"})
			return
		}

		ctx := context.WithValue(r.Context(), config.KeyUUID, userUUID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func AuthInterceptorGRPC(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	if strings.HasPrefix(info.FullMethod, healthPrefix) {
		return handler(ctx, req)
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "no info in metadata")
	}

	userIDs := md.Get(metadataUUID)
	if len(userIDs) != 1 || userIDs[0] == "" {
		return nil, status.Error(codes.Unauthenticated, "no uuid or more than one in metadata")
	}

	ctx = context.WithValue(ctx, config.KeyUUID, userIDs[0])
	return handler(ctx, req)
}
