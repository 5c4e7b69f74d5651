package sync

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jjpenad/cfma-acgi-integration/pkg/acgi"
	"github.com/jjpenad/cfma-acgi-integration/pkg/common"
	"github.com/jjpenad/cfma-acgi-integration/pkg/config"
	"github.com/jjpenad/cfma-acgi-integration/pkg/hubspot"
	"github.com/jjpenad/cfma-acgi-integration/pkg/logger"
	"github.com/jjpenad/cfma-acgi-integration/pkg/syncerrors"
)

type fakeSource struct {
	customers     map[string]*acgi.Customer
	memberships   map[string][]acgi.Membership
	products      map[string][]acgi.PurchasedProduct
	registrations map[string][]acgi.EventRegistration
	events        map[string]*acgi.Event
	eventFetches  map[string]int
}

func (f *fakeSource) FetchCustomer(ctx context.Context, customerID string) (*acgi.Customer, error) {
	c, ok := f.customers[customerID]
	if !ok {
		return nil, &syncerrors.TransportError{System: "acgi", Status: 500}
	}
	return c, nil
}

func (f *fakeSource) FetchMemberships(ctx context.Context, customerID string) ([]acgi.Membership, error) {
	return f.memberships[customerID], nil
}

func (f *fakeSource) FetchPurchasedProducts(ctx context.Context, customerID string) ([]acgi.PurchasedProduct, error) {
	return f.products[customerID], nil
}

func (f *fakeSource) FetchEventRegistrations(ctx context.Context, customerID string) ([]acgi.EventRegistration, error) {
	return f.registrations[customerID], nil
}

func (f *fakeSource) FetchEvent(ctx context.Context, eventID string) (*acgi.Event, error) {
	if f.eventFetches == nil {
		f.eventFetches = make(map[string]int)
	}
	f.eventFetches[eventID]++
	e, ok := f.events[eventID]
	if !ok {
		return nil, &syncerrors.UpstreamError{System: "acgi", Status: 200, Body: "not found"}
	}
	return e, nil
}

type upsertCall struct {
	ObjectType string
	SearchBy   map[string]string
	Properties map[string]string
}

type fakeDestination struct {
	contacts     []map[string]string
	objects      []upsertCall
	failuresLeft int
	nextID       int
}

func (f *fakeDestination) UpsertContact(ctx context.Context, strategy string, properties map[string]string) (hubspot.UpsertResult, error) {
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return hubspot.UpsertResult{}, &syncerrors.UpstreamError{System: "hubspot", Status: 429}
	}
	f.contacts = append(f.contacts, properties)
	f.nextID++
	return hubspot.UpsertResult{ID: fmt.Sprint(f.nextID), Created: true}, nil
}

func (f *fakeDestination) Upsert(ctx context.Context, objectType string, searchBy, properties map[string]string) (hubspot.UpsertResult, error) {
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return hubspot.UpsertResult{}, &syncerrors.UpstreamError{System: "hubspot", Status: 503}
	}
	f.objects = append(f.objects, upsertCall{ObjectType: objectType, SearchBy: searchBy, Properties: properties})
	f.nextID++
	return hubspot.UpsertResult{ID: fmt.Sprint(f.nextID), Created: true}, nil
}

type fakeMappings map[common.ObjectType]common.FieldMapping

func (f fakeMappings) Load(ctx context.Context, objectType common.ObjectType) (common.FieldMapping, error) {
	m, ok := f[objectType]
	if !ok {
		return nil, &syncerrors.MappingError{ObjectType: string(objectType)}
	}
	return m, nil
}

type fakeSettings struct{}

func (fakeSettings) SelectionPreferences(ctx context.Context, objectType common.ObjectType) (common.SelectionPreferences, error) {
	return common.DefaultSelectionPreferences(), nil
}

func (fakeSettings) SearchStrategy(ctx context.Context) (string, error) {
	return hubspot.StrategyEmailOnly, nil
}

func newTestSyncer(source *fakeSource, destination *fakeDestination, mappings Mappings) *Syncer {
	log := logger.New()
	log.SetLevel("error")
	return New(Options{
		Source:      source,
		Destination: destination,
		Mappings:    mappings,
		Settings:    fakeSettings{},
		Retry:       config.RetryConfig{MaxRetries: 2, BaseDelayMs: 1, MaxDelayMs: 5},
		Log:         log,
	})
}

func contactMapping() common.FieldMapping {
	return common.FieldMapping{
		{Destination: "customer_id", Source: "custId"},
		{Destination: "firstname", Source: "firstName"},
		{Destination: "email", Source: "emails"},
	}
}

func TestSyncContactsContinuesPastFailures(t *testing.T) {
	source := &fakeSource{customers: map[string]*acgi.Customer{
		"1": {CustID: "1", FirstName: "Ada", Emails: []common.Email{{Address: "ada@example.com"}}},
		"3": {CustID: "3", FirstName: "Grace"},
	}}
	destination := &fakeDestination{}
	syncer := newTestSyncer(source, destination, fakeMappings{
		common.ObjectTypeContacts: contactMapping(),
	})

	result := syncer.SyncObjectType(context.Background(), common.ObjectTypeContacts, []string{"1", "2", "3"})

	if result.Processed != 3 {
		t.Errorf("Processed = %d, want 3", result.Processed)
	}
	if result.Succeeded() != 2 {
		t.Errorf("Succeeded = %d, want 2", result.Succeeded())
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "customer 2") {
		t.Errorf("Errors = %v, want one naming customer 2", result.Errors)
	}
	if len(destination.contacts) != 2 {
		t.Fatalf("wrote %d contacts", len(destination.contacts))
	}
	if destination.contacts[0]["email"] != "ada@example.com" {
		t.Errorf("first contact = %v", destination.contacts[0])
	}
}

func TestSyncContactsMissingMappingIsNothingToDo(t *testing.T) {
	destination := &fakeDestination{}
	syncer := newTestSyncer(&fakeSource{}, destination, fakeMappings{})

	// An enabled object type without a configured mapping is skipped, not
	// failed; the run must stay purgeable.
	result := syncer.SyncObjectType(context.Background(), common.ObjectTypeContacts, []string{"1"})

	if result.Processed != 0 {
		t.Errorf("Processed = %d, want 0", result.Processed)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("Errors = %v, want none", result.Errors)
	}
	if len(destination.contacts) != 0 {
		t.Errorf("wrote %d contacts", len(destination.contacts))
	}
}

type failingMappings struct{ err error }

func (f failingMappings) Load(ctx context.Context, objectType common.ObjectType) (common.FieldMapping, error) {
	return nil, f.err
}

func TestSyncContactsMappingStoreFailure(t *testing.T) {
	syncer := newTestSyncer(&fakeSource{}, &fakeDestination{},
		failingMappings{err: fmt.Errorf("store unavailable")})

	result := syncer.SyncObjectType(context.Background(), common.ObjectTypeContacts, []string{"1"})

	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "mapping") {
		t.Fatalf("Errors = %v, want one mapping error", result.Errors)
	}
}

func TestSyncContactsRetriesTransientFailures(t *testing.T) {
	source := &fakeSource{customers: map[string]*acgi.Customer{
		"1": {CustID: "1", FirstName: "Ada"},
	}}
	destination := &fakeDestination{failuresLeft: 1}
	syncer := newTestSyncer(source, destination, fakeMappings{
		common.ObjectTypeContacts: contactMapping(),
	})

	result := syncer.SyncObjectType(context.Background(), common.ObjectTypeContacts, []string{"1"})

	if len(result.Errors) != 0 {
		t.Fatalf("Errors = %v, want retry to succeed", result.Errors)
	}
	if result.Succeeded() != 1 {
		t.Errorf("Succeeded = %d", result.Succeeded())
	}
}

func TestSyncMembershipsChildIndependence(t *testing.T) {
	source := &fakeSource{memberships: map[string][]acgi.Membership{
		"1": {
			{CustomerID: "1", SubgroupID: "100", ClassCode: "REG", Status: "ACTIVE"},
			{CustomerID: "1", SubgroupID: "200", ClassCode: "ASSOC", Status: "TERMINATED"},
		},
	}}
	destination := &fakeDestination{}
	syncer := newTestSyncer(source, destination, fakeMappings{
		common.ObjectTypeMemberships: {
			{Destination: "customer_id", Source: "customerId"},
			{Destination: "subgroup_id", Source: "subgroupId"},
			{Destination: "class_cd", Source: "classCd"},
			{Destination: "status", Source: "status"},
		},
	})

	result := syncer.SyncObjectType(context.Background(), common.ObjectTypeMemberships, []string{"1"})

	if len(result.Errors) != 0 {
		t.Fatalf("Errors = %v", result.Errors)
	}
	if len(destination.objects) != 2 {
		t.Fatalf("wrote %d objects, want 2", len(destination.objects))
	}

	// Upserts search on the natural-key properties so reruns stay idempotent.
	first := destination.objects[0]
	if first.SearchBy["customer_id"] != "1" || first.SearchBy["subgroup_id"] != "100" {
		t.Errorf("searchBy = %v", first.SearchBy)
	}
	if _, present := first.SearchBy["status"]; present {
		t.Error("non-key property used in search")
	}
}

func TestSyncEventsFetchesEachEventOnce(t *testing.T) {
	source := &fakeSource{
		registrations: map[string][]acgi.EventRegistration{
			"1": {
				{RegistrationID: "R-1", CustomerID: "1", EventID: "EV-1"},
				{RegistrationID: "R-2", CustomerID: "1", EventID: "EV-1"},
			},
			"2": {
				{RegistrationID: "R-3", CustomerID: "2", EventID: "EV-1"},
			},
		},
		events: map[string]*acgi.Event{
			"EV-1": {EventID: "EV-1", Name: "Annual Conference"},
		},
	}
	destination := &fakeDestination{}
	syncer := newTestSyncer(source, destination, fakeMappings{
		common.ObjectTypeEvents: {
			{Destination: "event_id", Source: "eventId"},
			{Destination: "event_name", Source: "eventName"},
		},
		common.ObjectTypeRegistrations: {
			{Destination: "registration_id", Source: "registrationId"},
			{Destination: "event_id", Source: "eventId"},
		},
	})

	result := syncer.SyncObjectType(context.Background(), common.ObjectTypeEvents, []string{"1", "2"})

	if len(result.Errors) != 0 {
		t.Fatalf("Errors = %v", result.Errors)
	}
	if source.eventFetches["EV-1"] != 1 {
		t.Errorf("event fetched %d times, want 1", source.eventFetches["EV-1"])
	}

	var eventWrites, registrationWrites int
	for _, call := range destination.objects {
		switch call.ObjectType {
		case "events":
			eventWrites++
		case "registrations":
			registrationWrites++
		}
	}
	// The event is deduplicated per run; every registration lands.
	if eventWrites != 1 {
		t.Errorf("event writes = %d, want 1", eventWrites)
	}
	if registrationWrites != 3 {
		t.Errorf("registration writes = %d, want 3", registrationWrites)
	}
}
