package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jjpenad/cfma-acgi-integration/pkg/common"
)

// App-state keys.
const (
	keySyncConfig        = "sync_config"
	keySearchStrategy    = "contact_search_strategy"
	keyLastSuccessfulRun = "last_successful_run"

	prefsKeyPrefix = "selection_preferences_"
)

func prefsKey(objectType common.ObjectType) string {
	return prefsKeyPrefix + string(objectType)
}

// Contact search strategies. They control how an existing destination
// contact is located before deciding between update and create.
const (
	SearchEmailOnly           = "email-only"
	SearchCustomerIDOnly      = "customer-id-only"
	SearchEmailThenCustomerID = "email-then-customer-id"
	SearchCustomerIDThenEmail = "customer-id-then-email"
)

// SyncConfig is the operator-controlled scheduling state.
type SyncConfig struct {
	Enabled         bool   `bson:"enabled" json:"enabled"`
	IntervalMinutes int    `bson:"intervalMinutes" json:"intervalMinutes"`
	CustomerIDs     string `bson:"customerIds" json:"customerIds"`
	SyncContacts    bool   `bson:"syncContacts" json:"syncContacts"`
	SyncMemberships bool   `bson:"syncMemberships" json:"syncMemberships"`
	SyncOrders      bool   `bson:"syncOrders" json:"syncOrders"`
	SyncEvents      bool   `bson:"syncEvents" json:"syncEvents"`
}

// DefaultSyncConfig returns the scheduling state used before an operator has
// saved one: disabled, all object types on, 15 minute interval.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		Enabled:         false,
		IntervalMinutes: 15,
		SyncContacts:    true,
		SyncMemberships: true,
		SyncOrders:      true,
		SyncEvents:      true,
	}
}

// ParseCustomerIDs splits the stored customer id text on commas and
// newlines only; an identifier may legitimately contain spaces. Entries are
// trimmed, blanks are dropped, and duplicates are kept as entered, an
// operator repeating an id gets it synced again.
func (c SyncConfig) ParseCustomerIDs() []string {
	parts := strings.FieldsFunc(c.CustomerIDs, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// EnabledObjectTypes returns the pipeline object types toggled on, in
// pipeline order.
func (c SyncConfig) EnabledObjectTypes() []common.ObjectType {
	var types []common.ObjectType
	if c.SyncContacts {
		types = append(types, common.ObjectTypeContacts)
	}
	if c.SyncMemberships {
		types = append(types, common.ObjectTypeMemberships)
	}
	if c.SyncOrders {
		types = append(types, common.ObjectTypeOrders)
	}
	if c.SyncEvents {
		types = append(types, common.ObjectTypeEvents)
	}
	return types
}

// LoadSyncConfig reads the persisted scheduling state, falling back to the
// defaults when none has been saved yet.
func (s *Store) LoadSyncConfig(ctx context.Context) (SyncConfig, error) {
	cfg := DefaultSyncConfig()
	found, err := s.GetValue(ctx, keySyncConfig, &cfg)
	if err != nil {
		return cfg, err
	}
	if !found {
		s.log.Debug("no saved sync config, using defaults")
	}
	return cfg, nil
}

// SaveSyncConfig persists the scheduling state.
func (s *Store) SaveSyncConfig(ctx context.Context, cfg SyncConfig) error {
	if cfg.IntervalMinutes <= 0 {
		return fmt.Errorf("invalid sync interval %d", cfg.IntervalMinutes)
	}
	return s.SetValue(ctx, keySyncConfig, cfg)
}

// SelectionPreferences reads the persisted selection policies for an object
// type, falling back to the defaults.
func (s *Store) SelectionPreferences(ctx context.Context, objectType common.ObjectType) (common.SelectionPreferences, error) {
	prefs := common.DefaultSelectionPreferences()
	if _, err := s.GetValue(ctx, prefsKey(objectType), &prefs); err != nil {
		return prefs, err
	}
	return prefs, nil
}

// SaveSelectionPreferences persists the selection policies for an object type.
func (s *Store) SaveSelectionPreferences(ctx context.Context, objectType common.ObjectType, prefs common.SelectionPreferences) error {
	return s.SetValue(ctx, prefsKey(objectType), prefs)
}

// SearchStrategy reads the persisted contact search strategy, defaulting to
// email-only matching.
func (s *Store) SearchStrategy(ctx context.Context) (string, error) {
	strategy := SearchEmailOnly
	if _, err := s.GetValue(ctx, keySearchStrategy, &strategy); err != nil {
		return strategy, err
	}
	return strategy, nil
}

// SaveSearchStrategy persists the contact search strategy.
func (s *Store) SaveSearchStrategy(ctx context.Context, strategy string) error {
	switch strategy {
	case SearchEmailOnly, SearchCustomerIDOnly, SearchEmailThenCustomerID, SearchCustomerIDThenEmail:
	default:
		return fmt.Errorf("unknown search strategy %q", strategy)
	}
	return s.SetValue(ctx, keySearchStrategy, strategy)
}

// LastSuccessfulRun returns the completion time of the last run that finished
// without errors, or the zero time when none has.
func (s *Store) LastSuccessfulRun(ctx context.Context) (time.Time, error) {
	var millis int64
	found, err := s.GetValue(ctx, keyLastSuccessfulRun, &millis)
	if err != nil || !found {
		return time.Time{}, err
	}
	return time.UnixMilli(millis).UTC(), nil
}

// RecordSuccessfulRun stamps the last successful run time.
func (s *Store) RecordSuccessfulRun(ctx context.Context, at time.Time) error {
	return s.SetValue(ctx, keyLastSuccessfulRun, at.UnixMilli())
}
