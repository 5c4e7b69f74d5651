// Package sync implements the per-object-type synchronization pipelines:
// fetch source records for each requested customer, map and normalize them,
// and upsert the results into the destination CRM. One bad identifier or
// child record never aborts a run; its error is recorded and the run
// continues.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jjpenad/cfma-acgi-integration/pkg/acgi"
	"github.com/jjpenad/cfma-acgi-integration/pkg/cache"
	"github.com/jjpenad/cfma-acgi-integration/pkg/common"
	"github.com/jjpenad/cfma-acgi-integration/pkg/config"
	"github.com/jjpenad/cfma-acgi-integration/pkg/hubspot"
	"github.com/jjpenad/cfma-acgi-integration/pkg/logger"
	"github.com/jjpenad/cfma-acgi-integration/pkg/syncerrors"
	"github.com/jjpenad/cfma-acgi-integration/pkg/transform"
)

// Source is the slice of the source client the pipelines consume.
type Source interface {
	FetchCustomer(ctx context.Context, customerID string) (*acgi.Customer, error)
	FetchMemberships(ctx context.Context, customerID string) ([]acgi.Membership, error)
	FetchPurchasedProducts(ctx context.Context, customerID string) ([]acgi.PurchasedProduct, error)
	FetchEventRegistrations(ctx context.Context, customerID string) ([]acgi.EventRegistration, error)
	FetchEvent(ctx context.Context, eventID string) (*acgi.Event, error)
}

// Destination is the slice of the CRM client the pipelines consume.
type Destination interface {
	UpsertContact(ctx context.Context, strategy string, properties map[string]string) (hubspot.UpsertResult, error)
	Upsert(ctx context.Context, objectType string, searchBy, properties map[string]string) (hubspot.UpsertResult, error)
}

// Mappings loads the persisted field mapping for an object type.
type Mappings interface {
	Load(ctx context.Context, objectType common.ObjectType) (common.FieldMapping, error)
}

// Settings reads the persisted per-object-type tuning.
type Settings interface {
	SelectionPreferences(ctx context.Context, objectType common.ObjectType) (common.SelectionPreferences, error)
	SearchStrategy(ctx context.Context) (string, error)
}

// DestinationTypeResolver maps an object type family to the destination's
// concrete object type id (custom object schemas have portal-specific ids).
type DestinationTypeResolver func(objectType common.ObjectType) string

// Result represents the outcome of one pipeline over one identifier batch.
type Result struct {
	ObjectType common.ObjectType
	Processed  int
	Created    int
	Updated    int
	Errors     []string
}

// Succeeded reports how many records were written.
func (r Result) Succeeded() int {
	return r.Created + r.Updated
}

func (r *Result) recordError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Natural-key destination properties per object type family. Upserts search
// on these so re-running a sync updates rather than duplicates.
var naturalKeys = map[common.ObjectType][]string{
	common.ObjectTypeMemberships:   {"customer_id", "subgroup_id", "class_cd", "subclass_cd"},
	common.ObjectTypeOrders:        {"customer_id", "order_serno", "product_id"},
	common.ObjectTypeEvents:        {"event_id"},
	common.ObjectTypeRegistrations: {"registration_id"},
}

// Syncer runs the synchronization pipelines for one destination credential.
type Syncer struct {
	source      Source
	destination Destination
	mappings    Mappings
	settings    Settings
	resolveType DestinationTypeResolver
	mapper      *transform.Mapper
	eventCache  *cache.Cache
	retry       config.RetryConfig
	delay       time.Duration
	log         *logger.Logger
}

// Options configures a Syncer.
type Options struct {
	Source          Source
	Destination     Destination
	Mappings        Mappings
	Settings        Settings
	ResolveType     DestinationTypeResolver
	EventCache      *cache.Cache
	Retry           config.RetryConfig
	InterRequestGap time.Duration
	Log             *logger.Logger
}

// New creates a new syncer.
func New(opts Options) *Syncer {
	if opts.EventCache == nil {
		opts.EventCache = cache.New(cache.DefaultTTL)
	}
	if opts.ResolveType == nil {
		opts.ResolveType = func(objectType common.ObjectType) string { return string(objectType) }
	}
	return &Syncer{
		source:      opts.Source,
		destination: opts.Destination,
		mappings:    opts.Mappings,
		settings:    opts.Settings,
		resolveType: opts.ResolveType,
		mapper:      transform.NewMapper(opts.Log),
		eventCache:  opts.EventCache,
		retry:       opts.Retry,
		delay:       opts.InterRequestGap,
		log:         opts.Log,
	}
}

// SyncObjectType runs one pipeline over the given customer identifiers.
// An object type without a configured mapping has nothing to do and returns
// an empty result; per-identifier and per-child failures are collected in
// the result and the run continues.
func (s *Syncer) SyncObjectType(ctx context.Context, objectType common.ObjectType, customerIDs []string) Result {
	result := Result{ObjectType: objectType}
	log := s.log.WithObjectType(string(objectType))

	mapping, err := s.mappings.Load(ctx, objectType)
	if err != nil {
		var mappingErr *syncerrors.MappingError
		if errors.As(err, &mappingErr) {
			log.Debugf("no mapping configured, nothing to do")
			return result
		}
		result.recordError("mapping: %v", err)
		return result
	}
	prefs, err := s.settings.SelectionPreferences(ctx, objectType)
	if err != nil {
		result.recordError("preferences: %v", err)
		return result
	}

	log.Infof("Starting sync for %d customers", len(customerIDs))

	// Events referenced by several customers are written once per run.
	syncedEvents := make(map[string]struct{})

	for i, customerID := range customerIDs {
		if err := ctx.Err(); err != nil {
			result.recordError("canceled: %v", err)
			return result
		}
		if i > 0 && s.delay > 0 {
			select {
			case <-ctx.Done():
				result.recordError("canceled: %v", ctx.Err())
				return result
			case <-time.After(s.delay):
			}
		}

		result.Processed++

		var err error
		switch objectType {
		case common.ObjectTypeContacts:
			err = s.syncContact(ctx, customerID, mapping, prefs, &result)
		case common.ObjectTypeMemberships:
			err = s.syncMemberships(ctx, customerID, mapping, prefs, &result)
		case common.ObjectTypeOrders:
			err = s.syncOrders(ctx, customerID, mapping, prefs, &result)
		case common.ObjectTypeEvents:
			err = s.syncEvents(ctx, customerID, mapping, prefs, syncedEvents, &result)
		default:
			err = fmt.Errorf("unknown object type %s", objectType)
		}
		if err != nil {
			log.Errorf("customer %s: %v", customerID, err)
			result.recordError("customer %s: %v", customerID, err)
		}
	}

	log.Infof("Sync complete: %d processed, %d created, %d updated, %d errors",
		result.Processed, result.Created, result.Updated, len(result.Errors))
	return result
}

func (s *Syncer) syncContact(ctx context.Context, customerID string, mapping common.FieldMapping, prefs common.SelectionPreferences, result *Result) error {
	customer, err := s.source.FetchCustomer(ctx, customerID)
	if err != nil {
		return err
	}

	record := s.mapper.Apply(transform.Source{
		Fields:    customer.Flatten(),
		Emails:    customer.Emails,
		Phones:    customer.Phones,
		Addresses: customer.Addresses,
	}, mapping, prefs)
	if len(record) == 0 {
		return fmt.Errorf("no mapped properties")
	}

	strategy, err := s.settings.SearchStrategy(ctx)
	if err != nil {
		return err
	}

	var upsert hubspot.UpsertResult
	err = withRetry(ctx, s.retry, s.log, "contact upsert", func() error {
		var retryErr error
		upsert, retryErr = s.destination.UpsertContact(ctx, strategy, record)
		return retryErr
	})
	if err != nil {
		return err
	}
	s.countUpsert(result, upsert)
	return nil
}

func (s *Syncer) syncMemberships(ctx context.Context, customerID string, mapping common.FieldMapping, prefs common.SelectionPreferences, result *Result) error {
	memberships, err := s.source.FetchMemberships(ctx, customerID)
	if err != nil {
		return err
	}

	for i := range memberships {
		record := s.mapper.Apply(transform.Source{Fields: memberships[i].Flatten()}, mapping, prefs)
		if len(record) == 0 {
			continue
		}
		if err := s.upsertObject(ctx, common.ObjectTypeMemberships, record, result); err != nil {
			result.recordError("customer %s membership %s/%s: %v",
				customerID, memberships[i].SubgroupID, memberships[i].ClassCode, err)
		}
	}
	return nil
}

func (s *Syncer) syncOrders(ctx context.Context, customerID string, mapping common.FieldMapping, prefs common.SelectionPreferences, result *Result) error {
	products, err := s.source.FetchPurchasedProducts(ctx, customerID)
	if err != nil {
		return err
	}

	for i := range products {
		record := s.mapper.Apply(transform.Source{Fields: products[i].Flatten()}, mapping, prefs)
		if len(record) == 0 {
			continue
		}
		if err := s.upsertObject(ctx, common.ObjectTypeOrders, record, result); err != nil {
			result.recordError("customer %s order %s/%s: %v",
				customerID, products[i].OrderSerno, products[i].ProductID, err)
		}
	}
	return nil
}

// syncEvents upserts the events referenced by a customer's registrations,
// plus the registration records themselves when a registration mapping
// exists. Each distinct event is fetched at most once per cache window and
// written at most once per run.
func (s *Syncer) syncEvents(ctx context.Context, customerID string, mapping common.FieldMapping, prefs common.SelectionPreferences, seen map[string]struct{}, result *Result) error {
	registrations, err := s.source.FetchEventRegistrations(ctx, customerID)
	if err != nil {
		return err
	}

	regMapping, regErr := s.mappings.Load(ctx, common.ObjectTypeRegistrations)
	if regErr != nil {
		s.log.Debugf("no registration mapping, syncing events only: %v", regErr)
	}

	for i := range registrations {
		eventID := registrations[i].EventID
		if eventID == "" {
			continue
		}
		if _, done := seen[eventID]; !done {
			seen[eventID] = struct{}{}
			if err := s.syncEvent(ctx, eventID, mapping, prefs, result); err != nil {
				result.recordError("event %s: %v", eventID, err)
			}
		}

		if regErr != nil {
			continue
		}
		record := s.mapper.Apply(transform.Source{Fields: registrations[i].Flatten()}, regMapping, prefs)
		if len(record) == 0 {
			continue
		}
		if err := s.upsertObject(ctx, common.ObjectTypeRegistrations, record, result); err != nil {
			result.recordError("customer %s registration %s: %v",
				customerID, registrations[i].RegistrationID, err)
		}
	}
	return nil
}

func (s *Syncer) syncEvent(ctx context.Context, eventID string, mapping common.FieldMapping, prefs common.SelectionPreferences, result *Result) error {
	var event *acgi.Event
	if cached, ok := s.eventCache.Get(eventID); ok {
		event = cached.(*acgi.Event)
	} else {
		fetched, err := s.source.FetchEvent(ctx, eventID)
		if err != nil {
			return err
		}
		s.eventCache.Set(eventID, fetched)
		event = fetched
	}

	record := s.mapper.Apply(transform.Source{Fields: event.Flatten()}, mapping, prefs)
	if len(record) == 0 {
		return fmt.Errorf("no mapped properties")
	}
	return s.upsertObject(ctx, common.ObjectTypeEvents, record, result)
}

// upsertObject writes one non-contact record, searching by the family's
// natural-key properties so repeated runs stay idempotent.
func (s *Syncer) upsertObject(ctx context.Context, objectType common.ObjectType, record map[string]string, result *Result) error {
	searchBy := make(map[string]string)
	for _, key := range naturalKeys[objectType] {
		if v := record[key]; v != "" {
			searchBy[key] = v
		}
	}

	destinationType := s.resolveType(objectType)

	var upsert hubspot.UpsertResult
	err := withRetry(ctx, s.retry, s.log, string(objectType)+" upsert", func() error {
		var retryErr error
		upsert, retryErr = s.destination.Upsert(ctx, destinationType, searchBy, record)
		return retryErr
	})
	if err != nil {
		return err
	}
	s.countUpsert(result, upsert)
	return nil
}

func (s *Syncer) countUpsert(result *Result, upsert hubspot.UpsertResult) {
	if upsert.Created {
		result.Created++
	} else {
		result.Updated++
	}
}
