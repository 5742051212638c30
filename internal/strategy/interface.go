package strategy

import (
	"encoding/json"

	"github.com/google/uuid"
)

// namespace for deterministic strategy IDs
var strategyNamespace = uuid.MustParse("6f1c2f1e-3b7a-4c52-9a61-0d7a4b1e8c90")

// Metadata describes a strategy for tracking and export
type Metadata struct {
	ID         uuid.UUID              `json:"id"`
	Name       string                 `json:"name"`
	Kind       Kind                   `json:"kind"`
	Parameters map[string]interface{} `json:"parameters"`
}

// Metadata returns the strategy description. The ID is derived from the
// parameters so identical definitions share an ID across runs.
func (c Config) Metadata() Metadata {
	params := c.Parameters()
	encoded, _ := json.Marshal(params)
	return Metadata{
		ID:         uuid.NewSHA1(strategyNamespace, encoded),
		Name:       c.Name,
		Kind:       c.Kind,
		Parameters: params,
	}
}
