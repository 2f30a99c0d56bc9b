package public

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain/chaindb"
	"github.com/nikakhov/bitshares-toolkit/foundation/client"
	"github.com/nikakhov/bitshares-toolkit/foundation/events"
	"github.com/nikakhov/bitshares-toolkit/foundation/nameservice"
	"github.com/nikakhov/bitshares-toolkit/foundation/web"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log    *zap.SugaredLogger
	Client *client.Client
	DB     *chaindb.DB
	NS     *nameservice.NameService
	Evts   *events.Events
}

// Routes binds all the public routes.
func Routes(app *web.App, cfg Config) {
	pbl := Handlers{
		Log:    cfg.Log,
		Client: cfg.Client,
		DB:     cfg.DB,
		NS:     cfg.NS,
		WS:     websocket.Upgrader{},
		Evts:   cfg.Evts,
	}

	const version = "v1"

	app.Handle(http.MethodGet, "/"+version+"/events", pbl.Events)
	app.Handle(http.MethodGet, "/"+version+"/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, "/"+version+"/node/status", pbl.Status)
	app.Handle(http.MethodGet, "/"+version+"/accounts/list", pbl.Accounts)
	app.Handle(http.MethodGet, "/"+version+"/accounts/list/:account", pbl.Accounts)
	app.Handle(http.MethodGet, "/"+version+"/blocks/list/:from/:to", pbl.BlocksByHeight)
	app.Handle(http.MethodGet, "/"+version+"/tx/uncommitted/list", pbl.Mempool)
	app.Handle(http.MethodGet, "/"+version+"/tx/uncommitted/list/:account", pbl.Mempool)
	app.Handle(http.MethodPost, "/"+version+"/tx/submit", pbl.SubmitTransaction)
}
