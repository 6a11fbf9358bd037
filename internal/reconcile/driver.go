package reconcile

import (
	"context"
	"fmt"

	"github.com/systmms/accountsync/internal/account"
	syncerrors "github.com/systmms/accountsync/internal/errors"
	"github.com/systmms/accountsync/internal/input"
	"github.com/systmms/accountsync/internal/logging"
	api "github.com/systmms/accountsync/pkg/vault"
)

// Options configure one reconciliation run.
type Options struct {
	Mode   account.Mode
	Lookup LookupOptions
	Safes  SafeOptions

	// AllowDuplicateOnCreate creates the account even when a matching
	// one already exists. Resolved before the batch starts; there is no
	// mid-batch prompting.
	AllowDuplicateOnCreate bool

	// SkipDuplicates treats an existing match in create mode as already
	// satisfied and records it as succeeded without a write call.
	SkipDuplicates bool

	// CreateOnUpdate reclassifies an update of a missing account into
	// the create path instead of failing it.
	CreateOnUpdate bool
}

// Summary is the final run accounting.
type Summary struct {
	Attempted int
	Succeeded int
	Failed    int
}

// Driver sequences the per-record pipeline: normalize, ensure safe,
// lookup, decide, apply, record. Records are processed strictly
// sequentially; a failure aborts only its own record.
type Driver struct {
	client   api.Client
	safes    *SafeManager
	recorder *Recorder
	logger   *logging.Logger
	run      *RunContext
	opts     Options
}

// NewDriver creates a driver for one run.
func NewDriver(client api.Client, recorder *Recorder, run *RunContext, logger *logging.Logger, opts Options) *Driver {
	return &Driver{
		client:   client,
		safes:    NewSafeManager(client, logger, opts.Safes),
		recorder: recorder,
		logger:   logger,
		run:      run,
		opts:     opts,
	}
}

// Run processes the whole batch. Only template-safe preparation can fail
// here; everything after is per-record and never aborts the batch.
func (dr *Driver) Run(ctx context.Context, table *input.Table) (Summary, error) {
	if dr.opts.Safes.Create && dr.opts.Safes.Template != "" {
		tpl, err := dr.client.GetSafe(ctx, dr.opts.Safes.Template)
		if err != nil {
			return Summary{}, fmt.Errorf("template safe preparation failed: %w", err)
		}
		if tpl == nil {
			return Summary{}, syncerrors.UserError{
				Message:    fmt.Sprintf("Template safe '%s' does not exist", dr.opts.Safes.Template),
				Suggestion: "Create the template safe first, or remove the template setting",
			}
		}
	}

	for _, row := range table.Rows {
		dr.processRow(ctx, row)
	}

	return Summary{
		Attempted: dr.run.Attempted,
		Succeeded: dr.run.Succeeded,
		Failed:    dr.run.Failed(),
	}, nil
}

func (dr *Driver) processRow(ctx context.Context, row input.Row) {
	dr.run.Attempted++

	// Anything unexpected aborts only this record; the batch continues.
	defer func() {
		if r := recover(); r != nil {
			dr.recorder.RecordBad(row, account.IdentityFromRow(row), fmt.Sprintf("unexpected error: %v", r))
		}
	}()

	d, err := account.Normalize(row, dr.opts.Mode)
	if err != nil {
		dr.recorder.RecordBad(row, account.IdentityFromRow(row), err.Error())
		return
	}
	identity := d.IdentityKey()

	exists, err := dr.safes.Ensure(ctx, d.SafeName)
	if err != nil {
		dr.recorder.RecordBad(row, identity, failureMessage(err))
		return
	}
	if !exists {
		dr.recorder.RecordBad(row, identity, fmt.Sprintf("safe '%s' does not exist and safe creation is disabled", d.SafeName))
		return
	}

	match, found, err := FindAccount(ctx, dr.client, d, dr.opts.Lookup)
	if err != nil {
		dr.recorder.RecordBad(row, identity, failureMessage(err))
		return
	}

	switch dr.opts.Mode {
	case account.ModeCreate:
		if found {
			if dr.opts.SkipDuplicates {
				dr.logger.Debug("Account '%s' already exists, skipping", identity)
				dr.recorder.RecordGood(row)
				return
			}
			if !dr.opts.AllowDuplicateOnCreate {
				dr.recorder.RecordBad(row, identity, fmt.Sprintf("account already exists in safe '%s' and duplicates are not allowed", d.SafeName))
				return
			}
		}
		dr.create(ctx, row, d, identity)

	case account.ModeUpdate:
		if !found {
			if dr.opts.CreateOnUpdate {
				dr.create(ctx, row, d, identity)
				return
			}
			dr.recorder.RecordBad(row, identity, "account does not exist")
			return
		}
		dr.update(ctx, row, d, match, identity)

	case account.ModeDelete:
		if !found {
			dr.recorder.RecordBad(row, identity, "account does not exist")
			return
		}
		observeWrite("delete")
		if err := dr.client.DeleteAccount(ctx, match.ID()); err != nil {
			dr.recorder.RecordBad(row, identity, failureMessage(syncerrors.RemoteWriteError{Operation: "delete", Err: err}))
			return
		}
		dr.logger.Info("Deleted account '%s'", identity)
		dr.recorder.RecordGood(row)
	}
}

// failureMessage renders an operation error for the bad report, marking
// transient-looking failures so the operator knows re-feeding the bad
// file is likely enough to resolve them.
func failureMessage(err error) string {
	msg := err.Error()
	if syncerrors.IsRetryable(err) {
		msg += " (transient; re-running the bad file may succeed)"
	}
	return msg
}

func (dr *Driver) create(ctx context.Context, row input.Row, d *account.DesiredAccount, identity string) {
	if d.UserName == "" || d.Address == "" || d.PlatformID == "" {
		dr.recorder.RecordBad(row, identity, "userName, address and platformId are required to create an account")
		return
	}

	observeWrite("create")
	if _, err := dr.client.AddAccount(ctx, d.NewAccount()); err != nil {
		dr.recorder.RecordBad(row, identity, failureMessage(syncerrors.RemoteWriteError{Operation: "create", Err: err}))
		return
	}
	dr.logger.Info("Created account '%s' in safe '%s'", identity, d.SafeName)
	dr.recorder.RecordGood(row)
}

func (dr *Driver) update(ctx context.Context, row input.Row, d *account.DesiredAccount, match api.AccountData, identity string) {
	if match == nil {
		dr.recorder.RecordBad(row, identity, "lookup was bypassed; cannot update without an account id")
		return
	}

	ops := Diff(d, match)
	if len(ops) == 0 {
		dr.logger.Debug("No changes detected for '%s'", identity)
	} else {
		observeWrite("update")
		if _, err := dr.client.UpdateAccount(ctx, match.ID(), ops); err != nil {
			dr.recorder.RecordBad(row, identity, failureMessage(syncerrors.RemoteWriteError{Operation: "update", Err: err}))
			return
		}
		dr.logger.Info("Applied %d change(s) to '%s'", len(ops), identity)
	}

	// The secret never rides in the attribute patch: password changes go
	// through the dedicated rotation call after the patch succeeds, and
	// key-type secrets cannot be updated at all.
	if d.Secret != "" {
		switch d.SecretType {
		case account.SecretTypeKey:
			dr.recorder.RecordBad(row, identity, "secret of type key cannot be updated through this run")
			return
		case account.SecretTypePassword:
			observeWrite("password_update")
			if err := dr.client.UpdateSecret(ctx, match.ID(), d.Secret); err != nil {
				dr.recorder.RecordBad(row, identity, failureMessage(syncerrors.RemoteWriteError{Operation: "password update", Err: err}))
				return
			}
		}
	}

	dr.recorder.RecordGood(row)
}
