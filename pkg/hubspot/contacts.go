package hubspot

import (
	"context"
)

// Contact search strategy names, mirrored by the record store's persisted
// setting. They control which equality searches run, and in what order,
// before deciding a contact does not exist yet.
const (
	StrategyEmailOnly           = "email-only"
	StrategyCustomerIDOnly      = "customer-id-only"
	StrategyEmailThenCustomerID = "email-then-customer-id"
	StrategyCustomerIDThenEmail = "customer-id-then-email"
)

// searchCandidates returns the ordered equality searches a strategy tries.
// Candidates whose properties are all empty are skipped by Search.
func searchCandidates(strategy string, properties map[string]string) []map[string]string {
	byEmail := map[string]string{"email": properties["email"]}
	byCustomerID := map[string]string{"customer_id": properties["customer_id"]}

	switch strategy {
	case StrategyCustomerIDOnly:
		return []map[string]string{byCustomerID}
	case StrategyEmailThenCustomerID:
		return []map[string]string{byEmail, byCustomerID}
	case StrategyCustomerIDThenEmail:
		return []map[string]string{byCustomerID, byEmail}
	default:
		return []map[string]string{byEmail}
	}
}

// UpsertContact updates the first contact matched by the search strategy, or
// creates one when no candidate search matches.
func (c *Client) UpsertContact(ctx context.Context, strategy string, properties map[string]string) (UpsertResult, error) {
	for _, searchBy := range searchCandidates(strategy, properties) {
		id, err := c.Search(ctx, "contacts", searchBy)
		if err != nil {
			return UpsertResult{}, err
		}
		if id != "" {
			if err := c.Update(ctx, "contacts", id, properties); err != nil {
				return UpsertResult{}, err
			}
			return UpsertResult{ID: id}, nil
		}
	}

	id, err := c.Create(ctx, "contacts", properties)
	if err != nil {
		return UpsertResult{}, err
	}
	return UpsertResult{ID: id, Created: true}, nil
}
