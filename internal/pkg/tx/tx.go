package tx

import (
	"context"
	"net/http"

	"google.golang.org/grpc"
)

type key string

const KeyTx = key("tx")

type DbRepo interface {
	WithTx(ctx context.Context, cb func(ctx context.Context) error) error
}

type Tx struct {
	DbRepo DbRepo
}

// TxExecute runs cb inside the transaction of the repository carried by ctx.
// Without one, cb runs directly.
func TxExecute(ctx context.Context, cb func(ctx context.Context) error) error {
	t, ok := ctx.Value(KeyTx).(Tx)
	if !ok || t.DbRepo == nil {
		return cb(ctx)
	}

	return t.DbRepo.WithTx(ctx, cb)
}

func TxMiddlewareHTTP(dbRepo DbRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), KeyTx, Tx{DbRepo: dbRepo})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func TxMiddlewareGRPC(dbRepo DbRepo) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		return handler(context.WithValue(ctx, KeyTx, Tx{DbRepo: dbRepo}), req)
	}
}
