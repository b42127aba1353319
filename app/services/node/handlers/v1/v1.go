// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/registrychain/registry/app/services/node/handlers/v1/private"
	"github.com/registrychain/registry/app/services/node/handlers/v1/public"
	"github.com/registrychain/registry/foundation/events"
	"github.com/registrychain/registry/foundation/nameservice"
	"github.com/registrychain/registry/foundation/registry/state"
	"github.com/registrychain/registry/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/accounts/list", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/accounts/list/:account", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/orgs/list", pbl.Orgs)
	app.Handle(http.MethodGet, version, "/orgs/list/:org", pbl.Orgs)
	app.Handle(http.MethodGet, version, "/users/list", pbl.Users)
	app.Handle(http.MethodGet, version, "/users/list/:user", pbl.Users)
	app.Handle(http.MethodGet, version, "/ids/status/:id", pbl.IDStatus)
	app.Handle(http.MethodGet, version, "/projects/list", pbl.Projects)
	app.Handle(http.MethodGet, version, "/projects/list/:kind/:domain/:name", pbl.Projects)
	app.Handle(http.MethodGet, version, "/checkpoints/:checkpoint", pbl.Checkpoint)
	app.Handle(http.MethodGet, version, "/receipts/:tx", pbl.Receipt)
	app.Handle(http.MethodGet, version, "/blocks/list/:from/:to", pbl.BlocksByNumber)
	app.Handle(http.MethodGet, version, "/tx/uncommitted/list", pbl.Mempool)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitWalletTransaction)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodGet, version, "/node/block/list/:from/:to", prv.BlocksByNumber)
	app.Handle(http.MethodPost, version, "/node/block/propose", prv.ProposeBlock)
	app.Handle(http.MethodGet, version, "/node/tx/uncommitted/list", prv.Mempool)
}
