package internal

import (
	"net/http"

	"github.com/derWhity/turntable/internal/ctxhelper"
	"github.com/go-kit/kit/endpoint"
	"golang.org/x/net/context"
)

// EnsureDJLoggedIn is a middleware that checks if there is a valid DJ session for the current call
func EnsureDJLoggedIn(next endpoint.Endpoint) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		dj := ctxhelper.DJ(ctx)
		if dj == nil {
			// Nobody logged in
			return nil, MakeError(
				http.StatusUnauthorized,
				ErrCodeNotLoggedIn,
				"This function needs a logged-in DJ",
			)
		}
		return next(ctx, request)
	}
}
