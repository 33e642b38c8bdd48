package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "keyadmin/internal/api/context"
	"keyadmin/internal/api/handlers"
	"keyadmin/internal/api/middleware"
)

type Dependencies struct {
	AuthHandler       *handlers.AuthHandler
	KeysHandler       *handlers.KeysHandler
	SessionMiddleware *middleware.SessionMiddleware
}

// NewRouter builds the console's route table. Every route passes through the
// session gate; the gate itself decides what is public.
func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	gate := deps.SessionMiddleware

	// Unauthenticated surface
	router.GET("/", chain(deps.AuthHandler.Landing, middleware.RequestLog, gate.Handle))
	router.GET("/login", chain(deps.AuthHandler.Login, middleware.RequestLog, gate.Handle))
	router.GET("/register", chain(deps.AuthHandler.Register, middleware.RequestLog, gate.Handle))
	router.GET("/api/config", chain(deps.AuthHandler.Config, middleware.RequestLog, gate.Handle))

	// Session
	router.GET("/api/me", chain(deps.AuthHandler.Me, middleware.RequestLog, gate.Handle))

	// Key management
	router.GET("/api/keys", chain(deps.KeysHandler.List, middleware.RequestLog, gate.Handle))
	router.POST("/api/keys", chain(deps.KeysHandler.Create, middleware.RequestLog, gate.Handle))
	router.POST("/api/keys/:key_id/delete", chain(deps.KeysHandler.Delete, middleware.RequestLog, gate.Handle))
	router.GET("/api/keys/:key_id/spend", chain(deps.KeysHandler.Spend, middleware.RequestLog, gate.Handle))
	router.POST("/api/keys/:key_id/budget-period", chain(deps.KeysHandler.Budget, middleware.RequestLog, gate.Handle))
	router.GET("/api/regions", chain(deps.KeysHandler.Regions, middleware.RequestLog, gate.Handle))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
