// Package handlers manages the muxes for the node's web surfaces.
package handlers

import (
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"

	"go.uber.org/zap"

	"github.com/nikakhov/bitshares-toolkit/app/services/node/handlers/debug/checkgrp"
	"github.com/nikakhov/bitshares-toolkit/app/services/node/handlers/public"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/chaindb"
	"github.com/nikakhov/bitshares-toolkit/foundation/client"
	"github.com/nikakhov/bitshares-toolkit/foundation/events"
	"github.com/nikakhov/bitshares-toolkit/foundation/nameservice"
	"github.com/nikakhov/bitshares-toolkit/foundation/web"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown chan os.Signal
	Log      *zap.SugaredLogger
	Client   *client.Client
	DB       *chaindb.DB
	NS       *nameservice.NameService
	Evts     *events.Events
}

// PublicMux constructs a http.Handler with all application routes defined.
func PublicMux(cfg MuxConfig) http.Handler {
	app := web.NewApp(cfg.Shutdown)

	public.Routes(app, public.Config{
		Log:    cfg.Log,
		Client: cfg.Client,
		DB:     cfg.DB,
		NS:     cfg.NS,
		Evts:   cfg.Evts,
	})

	return app
}

// DebugStandardLibraryMux registers all the debug routes from the standard
// library into a new mux bypassing the use of the DefaultServerMux. Using
// the DefaultServerMux would be a security risk since a dependency could
// inject a handler into our service without us knowing it.
func DebugStandardLibraryMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	return mux
}

// DebugMux registers all the debug standard library routes and then custom
// debug application routes for the service.
func DebugMux(build string, log *zap.SugaredLogger) http.Handler {
	mux := DebugStandardLibraryMux()

	cgh := checkgrp.Handlers{
		Build: build,
		Log:   log,
	}
	mux.HandleFunc("/debug/readiness", cgh.Readiness)
	mux.HandleFunc("/debug/liveness", cgh.Liveness)

	return mux
}
