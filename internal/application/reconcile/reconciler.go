package reconcile

import (
	"context"
	"time"

	"github.com/adplan/backend/internal/domain/contract"
	"github.com/adplan/backend/internal/domain/reconcile"
)

// Reconciler ensures that a (client, media) pair is linked by a contract.
//
// In live mode the store's unique (client_id, media_id) key is the only
// authority: every first request for a key is an insert-if-absent, and a
// conflict means the contract exists. Results are remembered for the rest
// of the run. In dry-run mode nothing is written and the contracts loaded
// at the start of the run decide.
type Reconciler struct {
	contracts contract.Repository
	dryRun    bool
	now       func() time.Time
	known     map[contract.Key]*contract.Contract
}

// NewReconciler creates a reconciler writing through contracts.
// existing seeds the dry-run view; it is ignored in live mode.
func NewReconciler(contracts contract.Repository, dryRun bool, existing map[contract.Key]*contract.Contract, now func() time.Time) *Reconciler {
	known := make(map[contract.Key]*contract.Contract)
	if dryRun {
		for k, c := range existing {
			known[k] = c
		}
	}
	if now == nil {
		now = time.Now
	}
	return &Reconciler{
		contracts: contracts,
		dryRun:    dryRun,
		now:       now,
		known:     known,
	}
}

// EnsureContract returns the contract linking key.ClientID to key.MediaID,
// synthesizing a placeholder when none exists. The outcome is created or
// existing; on error it is failed and the key is not remembered. A contract
// that would be created in dry-run mode has ID 0.
func (r *Reconciler) EnsureContract(ctx context.Context, key contract.Key) (*contract.Contract, reconcile.Outcome, error) {
	if c, ok := r.known[key]; ok {
		return c, reconcile.OutcomeExisting, nil
	}

	c, err := contract.NewPlaceholderContract(key.ClientID, key.MediaID, r.now().UTC())
	if err != nil {
		return nil, reconcile.OutcomeFailed, err
	}

	if r.dryRun {
		r.known[key] = c
		return c, reconcile.OutcomeCreated, nil
	}

	created, err := r.contracts.CreateIfAbsent(ctx, c)
	if err != nil {
		return nil, reconcile.OutcomeFailed, err
	}
	r.known[key] = c
	if created {
		return c, reconcile.OutcomeCreated, nil
	}
	return c, reconcile.OutcomeExisting, nil
}
