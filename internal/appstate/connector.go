package appstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/bankconnect/internal/bankclient"
	"github.com/muurk/bankconnect/internal/logging"
	"github.com/muurk/bankconnect/internal/node"
	"github.com/muurk/bankconnect/internal/store"
)

// Result is what a connect attempt resolves to.
// A non-empty Error is a display-ready failure message.
type Result struct {
	Error      string
	BankConfig *node.BankConfig
	Key        string

	// Cause is the node error behind Error, for callers that want more detail
	Cause error
}

// NodeClient is the subset of bankclient.Client the connector needs
type NodeClient interface {
	GetBankConfig(ctx context.Context) (*node.BankConfig, error)
	GetValidatorConfig(ctx context.Context) (*node.ValidatorConfig, error)
}

// ClientFactory builds a client for a node address
type ClientFactory func(addr node.Address) NodeClient

// DefaultClientFactory returns real HTTP clients
func DefaultClientFactory(addr node.Address) NodeClient {
	return bankclient.NewClient(addr)
}

// Connector connects to banks and persists them
type Connector struct {
	State     *State
	Store     *store.Store
	NewClient ClientFactory

	// Timeout bounds a whole connect attempt; 0 waits indefinitely
	Timeout time.Duration
}

// NewConnector wires a connector with the default HTTP client factory
func NewConnector(state *State, st *store.Store) *Connector {
	return &Connector{
		State:     state,
		Store:     st,
		NewClient: DefaultClientFactory,
		Timeout:   st.Preferences().ConnectTimeoutDuration(),
	}
}

// ConnectAndStore fetches the bank at addr, stores it with nickname, and makes
// it the active bank.
//
// Failures talking to the node come back as Result.Error. A returned error
// means something unexpected went wrong (for example the store could not be
// written); callers should not show its text to the user.
func (c *Connector) ConnectAndStore(ctx context.Context, addr node.Address, nickname string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("connect panicked: %v", r)
		}
		logging.LogConnectResult(addr.BaseURL(), res.Error, err)
	}()

	logging.LogConnectAttempt(addr.BaseURL(), nickname)

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cfg, err := c.NewClient(addr).GetBankConfig(ctx)
	if err != nil {
		return c.failure(err)
	}

	validator := c.fetchPrimaryValidator(ctx, cfg)

	// Nothing stays in memory unless it also reached disk
	snap := c.Store.Snapshot()

	key := c.Store.UpsertBank(cfg, nickname)
	if validator != nil {
		c.Store.UpsertValidator(validator)
	}
	if err := c.Store.SetActiveBank(key); err != nil {
		c.Store.Restore(snap)
		return Result{}, fmt.Errorf("failed to activate bank: %w", err)
	}
	if err := c.Store.Save(); err != nil {
		c.Store.Restore(snap)
		return Result{}, fmt.Errorf("failed to persist bank: %w", err)
	}

	c.State.SetActiveBank(cfg, validator)

	return Result{BankConfig: cfg, Key: key}, nil
}

// Resume reconnects to the bank that was active when the store was last saved.
// It reports false when there is nothing to resume.
func (c *Connector) Resume(ctx context.Context) (Result, bool, error) {
	key, bank := c.Store.ActiveBank()
	if bank == nil {
		return Result{}, false, nil
	}

	logging.Info("Resuming active bank", zap.String("key", key))

	res, err := c.ConnectAndStore(ctx, bank.Address, "")
	return res, true, err
}

// Disconnect clears the active bank in both the store and the live state
func (c *Connector) Disconnect() error {
	snap := c.Store.Snapshot()
	if err := c.Store.SetActiveBank(""); err != nil {
		return err
	}
	if err := c.Store.Save(); err != nil {
		c.Store.Restore(snap)
		return fmt.Errorf("failed to persist disconnect: %w", err)
	}
	c.State.ClearActiveBank()
	return nil
}

// failure turns a client error into a structured result, or passes through
// anything that is not a node communication error
func (c *Connector) failure(err error) (Result, error) {
	var bankErr *bankclient.BankError
	if errors.As(err, &bankErr) {
		return Result{Error: bankclient.ShortMessage(err), Cause: err}, nil
	}
	return Result{}, err
}

// fetchPrimaryValidator asks the bank's primary validator for its own config.
// Failure is not fatal: the copy embedded in the bank config is used instead.
func (c *Connector) fetchPrimaryValidator(ctx context.Context, cfg *node.BankConfig) *node.ValidatorConfig {
	embedded := cfg.PrimaryValidator
	if embedded == nil || embedded.IPAddress == "" || !embedded.Protocol.Valid() {
		return embedded
	}

	validator, err := c.NewClient(embedded.NodeAddress()).GetValidatorConfig(ctx)
	if err != nil {
		logging.Warn("Primary validator unavailable, using bank's copy",
			zap.String("validator", embedded.NodeAddress().BaseURL()),
			zap.Error(err),
		)
		return embedded
	}

	return validator
}
