package reconcile

import (
	"context"

	syncerrors "github.com/systmms/accountsync/internal/errors"
	"github.com/systmms/accountsync/internal/logging"
	"github.com/systmms/accountsync/internal/vault"
	api "github.com/systmms/accountsync/pkg/vault"
)

// SafeOptions configure how missing safes are handled.
type SafeOptions struct {
	// Create enables creation of missing safes.
	Create bool

	// Template names an existing safe whose structure and non-default
	// membership are cloned onto newly created safes.
	Template string

	ManagingCPM           string
	NumberOfDaysRetention int

	// BypassCheck trusts the per-run cache instead of re-checking
	// existence on every record. An explicit trust decision by the
	// caller, not an optimization.
	BypassCheck bool
}

// defaultMembers are granted automatically by the vault on every new
// safe; cloning them from a template would be rejected or redundant.
var defaultMembers = map[string]bool{
	"Master":               true,
	"Batch":                true,
	"Administrator":        true,
	"Auditors":             true,
	"Backup Users":         true,
	"Operators":            true,
	"DR Users":             true,
	"Notification Engines": true,
	"PVWAGWAccounts":       true,
	"PasswordManager":      true,
}

// SafeManager ensures the safe owning each record exists, creating it
// at most once per name per run.
type SafeManager struct {
	client api.Client
	logger *logging.Logger
	opts   SafeOptions

	ensured map[string]bool
}

// NewSafeManager creates a safe manager for one run.
func NewSafeManager(client api.Client, logger *logging.Logger, opts SafeOptions) *SafeManager {
	return &SafeManager{
		client:  client,
		logger:  logger,
		opts:    opts,
		ensured: make(map[string]bool),
	}
}

// Ensure checks that the named safe exists, creating it when creation is
// enabled. Returns exists=false (with nil error) when the safe is absent
// and creation is disabled; the driver classifies that record as failed.
func (m *SafeManager) Ensure(ctx context.Context, name string) (bool, error) {
	if m.opts.BypassCheck && m.ensured[name] {
		return true, nil
	}

	safe, err := m.client.GetSafe(ctx, name)
	if err != nil {
		return false, err
	}
	if safe != nil {
		m.ensured[name] = true
		return true, nil
	}

	if !m.opts.Create {
		return false, nil
	}

	if err := m.create(ctx, name); err != nil {
		return false, err
	}
	m.ensured[name] = true
	return true, nil
}

// create builds the new safe, optionally as a structural copy of the
// template with the name substituted, then grants the template's
// non-default members. A partial membership grant failure is logged but
// does not roll back the safe creation.
func (m *SafeManager) create(ctx context.Context, name string) error {
	newSafe := api.Safe{
		SafeName:              name,
		ManagingCPM:           m.opts.ManagingCPM,
		NumberOfDaysRetention: m.opts.NumberOfDaysRetention,
	}

	var members []api.Member
	if m.opts.Template != "" {
		tpl, err := m.client.GetSafe(ctx, m.opts.Template)
		if err != nil {
			return syncerrors.ContainerCreateError{Safe: name, Err: err}
		}
		if tpl != nil {
			newSafe = *tpl
			newSafe.SafeName = name
		}
		members, err = m.client.ListSafeMembers(ctx, m.opts.Template)
		if err != nil {
			return syncerrors.ContainerCreateError{Safe: name, Err: err}
		}
	}

	if err := m.client.AddSafe(ctx, newSafe); err != nil {
		if vault.IsAlreadyExists(err) {
			m.logger.Debug("Safe '%s' already exists, continuing", name)
			return nil
		}
		return syncerrors.ContainerCreateError{Safe: name, Err: err}
	}
	m.logger.Info("Created safe '%s'", name)

	for _, member := range members {
		if defaultMembers[member.MemberName] {
			continue
		}
		if err := m.client.AddSafeMember(ctx, name, member); err != nil {
			if vault.IsAlreadyExists(err) {
				continue
			}
			m.logger.Warn("Failed to grant member '%s' on safe '%s': %v", member.MemberName, name, err)
		}
	}
	return nil
}
