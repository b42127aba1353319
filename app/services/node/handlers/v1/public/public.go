// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	v1 "github.com/registrychain/registry/business/web/v1"
	"github.com/registrychain/registry/foundation/events"
	"github.com/registrychain/registry/foundation/nameservice"
	"github.com/registrychain/registry/foundation/registry/database"
	"github.com/registrychain/registry/foundation/registry/id"
	"github.com/registrychain/registry/foundation/registry/state"
	"github.com/registrychain/registry/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of registry endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitWalletTransaction adds new wallet transactions to the mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var signedTx database.SignedTx
	if err := web.Decode(r, &signedTx); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.Log.Infow("add tran", "traceid", v.TraceID, "from:nonce", signedTx, "kind", signedTx.Msg.MsgKind, "fee_bid", signedTx.FeeBid)
	if err := h.State.UpsertWalletTransaction(signedTx); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.Genesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txs := h.State.QueryMempool()

	trans := make([]tx, len(txs))
	for i, tran := range txs {
		account, _ := tran.FromAccount()

		trans[i] = tx{
			FromAccount: account,
			FromName:    h.NS.Lookup(account),
			Nonce:       tran.Nonce,
			FeeBid:      tran.FeeBid,
			Kind:        tran.Msg.MsgKind,
			TimeStamp:   tran.TimeStamp,
			Sig:         tran.SignatureString(),
		}
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// Accounts returns the current account balances and nonces.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")

	var accounts map[id.AccountID]database.Account
	switch account {
	case "":
		accounts = h.State.QueryAccounts()

	default:
		accountID, err := id.ToAccountID(account)
		if err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}
		act, err := h.State.QueryAccount(accountID)
		if err != nil {
			return v1.NewRequestError(err, http.StatusNotFound)
		}
		accounts = map[id.AccountID]database.Account{accountID: act}
	}

	acts := make([]info, 0, len(accounts))
	for accountID, act := range accounts {
		acts = append(acts, info{
			Account: accountID,
			Name:    h.NS.Lookup(accountID),
			Balance: act.Balance,
			Nonce:   act.Nonce,
		})
	}

	ai := actInfo{
		LatestBlock: h.State.LatestBlock().Hash(),
		Uncommitted: h.State.QueryMempoolLength(),
		Accounts:    acts,
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}

// Orgs returns the registered orgs, or a single org by id.
func (h Handlers) Orgs(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	org := web.Param(r, "org")

	if org == "" {
		return web.Respond(ctx, w, h.State.QueryOrgs(), http.StatusOK)
	}

	orgID, err := id.ParseID(org)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	o, err := h.State.QueryOrg(orgID)
	if err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, o, http.StatusOK)
}

// Users returns the registered users, or a single user by id.
func (h Handlers) Users(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	user := web.Param(r, "user")

	if user == "" {
		return web.Respond(ctx, w, h.State.QueryUsers(), http.StatusOK)
	}

	userID, err := id.ParseID(user)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	usr, err := h.State.QueryUser(userID)
	if err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, usr, http.StatusOK)
}

// IDStatus reports whether the id is available, taken or retired.
func (h Handlers) IDStatus(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	entityID, err := id.ParseID(web.Param(r, "id"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	status := idStatus{
		ID:     entityID,
		Status: string(h.State.QueryIDStatus(entityID)),
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// Projects returns the registered projects, or a single project by its
// domain scoped key.
func (h Handlers) Projects(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	kind := web.Param(r, "kind")

	if kind == "" {
		return web.Respond(ctx, w, h.State.QueryProjects(), http.StatusOK)
	}

	domainID, err := id.ParseID(web.Param(r, "domain"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	name, err := id.ParseProjectName(web.Param(r, "name"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	domain := id.ProjectDomain{Kind: id.DomainKind(kind), ID: domainID}
	if err := domain.Validate(); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	prj, err := h.State.QueryProject(id.NewProjectKey(name, domain))
	if err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, prj, http.StatusOK)
}

// Checkpoint returns a checkpoint by its content id.
func (h Handlers) Checkpoint(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cp, err := h.State.QueryCheckpoint(web.Param(r, "checkpoint"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, cp, http.StatusOK)
}

// Receipt returns the receipt recorded for a mined transaction.
func (h Handlers) Receipt(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	receipt, err := h.State.QueryReceipt(web.Param(r, "tx"))
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return v1.NewRequestError(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, receipt, http.StatusOK)
}

// BlocksByNumber returns blocks and their details for the specified range.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	fromStr := web.Param(r, "from")
	if fromStr == "latest" || fromStr == "" {
		fromStr = fmt.Sprintf("%d", state.QueryLatest)
	}

	toStr := web.Param(r, "to")
	if toStr == "latest" || toStr == "" {
		toStr = fmt.Sprintf("%d", state.QueryLatest)
	}

	from, err := strconv.ParseUint(fromStr, 10, 64)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}
	to, err := strconv.ParseUint(toStr, 10, 64)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	if from > to {
		return v1.NewRequestError(errors.New("from greater than to"), http.StatusBadRequest)
	}

	dbBlocks := h.State.QueryBlocksByNumber(from, to)
	if len(dbBlocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blocks := make([]block, len(dbBlocks))
	for j, blk := range dbBlocks {
		values := blk.Trans.Values()

		trans := make([]tx, len(values))
		for i, tran := range values {
			account, _ := tran.FromAccount()
			trans[i] = tx{
				FromAccount: account,
				FromName:    h.NS.Lookup(account),
				Nonce:       tran.Nonce,
				FeeBid:      tran.FeeBid,
				Kind:        tran.Msg.MsgKind,
				TimeStamp:   tran.TimeStamp,
				Sig:         tran.SignatureString(),
			}
		}

		blocks[j] = block{
			ParentHash:    blk.Header.ParentHash,
			Beneficiary:   blk.Header.BeneficiaryID,
			BeneficiaryNm: h.NS.Lookup(blk.Header.BeneficiaryID),
			Difficulty:    blk.Header.Difficulty,
			Number:        blk.Header.Number,
			TimeStamp:     blk.Header.TimeStamp,
			Nonce:         blk.Header.Nonce,
			TransRoot:     blk.Header.TransRoot,
			Transactions:  trans,
		}
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}
