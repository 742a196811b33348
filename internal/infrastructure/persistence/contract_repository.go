package persistence

import (
	"context"
	"fmt"

	"github.com/adplan/backend/internal/domain/contract"
	"github.com/adplan/backend/internal/infrastructure/persistence/models"
)

// IDStrategy selects how new contract identifiers are assigned
type IDStrategy string

const (
	// IDStrategyStore lets the store's sequence assign the ID
	IDStrategyStore IDStrategy = "store"
	// IDStrategyMaxPlusOne assigns max(id)+1, for stores without a sequence
	IDStrategyMaxPlusOne IDStrategy = "max_plus_one"
)

// ParseIDStrategy converts a configuration value into an IDStrategy
func ParseIDStrategy(s string) (IDStrategy, error) {
	switch IDStrategy(s) {
	case IDStrategyStore, "":
		return IDStrategyStore, nil
	case IDStrategyMaxPlusOne:
		return IDStrategyMaxPlusOne, nil
	default:
		return "", fmt.Errorf("unknown id strategy %q", s)
	}
}

var contractKeyColumns = []string{"client_id", "media_id"}

// ContractRepository implements contract.Repository on a Gateway
type ContractRepository struct {
	gw         Gateway
	table      string
	idStrategy IDStrategy
}

// NewContractRepository creates a ContractRepository over the given table
func NewContractRepository(gw Gateway, table string, idStrategy IDStrategy) *ContractRepository {
	return &ContractRepository{gw: gw, table: table, idStrategy: idStrategy}
}

// FindAll returns every contract ordered by ID
func (r *ContractRepository) FindAll(ctx context.Context) ([]contract.Contract, error) {
	return selectAll[models.ContractModel, contract.Contract](ctx, r.gw, r.table, Query{}.Ordered("id"))
}

// FindByClient returns the contracts of one client ordered by ID
func (r *ContractRepository) FindByClient(ctx context.Context, clientID int64) ([]contract.Contract, error) {
	return selectAll[models.ContractModel, contract.Contract](ctx, r.gw, r.table,
		Where(Eq("client_id", clientID)).Ordered("id"))
}

// FindByKey finds the contract linking a client to a media
func (r *ContractRepository) FindByKey(ctx context.Context, key contract.Key) (*contract.Contract, error) {
	return selectOne[models.ContractModel, contract.Contract](ctx, r.gw, r.table,
		Where(Eq("client_id", key.ClientID), Eq("media_id", key.MediaID)))
}

// CreateIfAbsent inserts c with ON CONFLICT (client_id, media_id) DO NOTHING.
// When the insert is skipped the stored contract is loaded into c.
func (r *ContractRepository) CreateIfAbsent(ctx context.Context, c *contract.Contract) (bool, error) {
	var model models.ContractModel
	model.FromDomain(c)
	model.ID = 0

	if r.idStrategy == IDStrategyMaxPlusOne {
		maxID, err := r.gw.Max(ctx, r.table, "id")
		if err != nil {
			return false, err
		}
		model.ID = maxID + 1
	}

	inserted, err := r.gw.Insert(ctx, r.table, &model, contractKeyColumns...)
	if err != nil {
		return false, err
	}
	if inserted == 0 {
		existing, err := r.FindByKey(ctx, c.Key())
		if err != nil {
			return false, fmt.Errorf("load conflicting contract %s: %w", c.Key(), err)
		}
		*c = *existing
		return false, nil
	}

	c.ID = model.ID
	return true, nil
}
