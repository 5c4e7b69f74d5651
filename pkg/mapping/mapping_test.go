package mapping

import (
	"context"
	"errors"
	"testing"

	"github.com/jjpenad/cfma-acgi-integration/pkg/common"
	"github.com/jjpenad/cfma-acgi-integration/pkg/logger"
	"github.com/jjpenad/cfma-acgi-integration/pkg/syncerrors"
)

type fakeBackend struct {
	destFields []string
	srcFields  []string
	saved      map[common.ObjectType]common.FieldMapping
}

func (f *fakeBackend) ImportantDestinationFields(ctx context.Context, objectType common.ObjectType) ([]string, error) {
	return f.destFields, nil
}

func (f *fakeBackend) ImportantSourceFields(ctx context.Context, objectType common.ObjectType) ([]string, error) {
	return f.srcFields, nil
}

func (f *fakeBackend) LoadMapping(ctx context.Context, objectType common.ObjectType) (common.FieldMapping, error) {
	if m, ok := f.saved[objectType]; ok {
		return m, nil
	}
	return nil, &syncerrors.MappingError{ObjectType: string(objectType)}
}

func (f *fakeBackend) SaveMapping(ctx context.Context, objectType common.ObjectType, mapping common.FieldMapping) error {
	if f.saved == nil {
		f.saved = make(map[common.ObjectType]common.FieldMapping)
	}
	f.saved[objectType] = mapping
	return nil
}

func testStore(backend *fakeBackend) *Store {
	log := logger.New()
	log.SetLevel("error")
	return NewStore(backend, log)
}

func TestGeneratePairsByPosition(t *testing.T) {
	store := testStore(&fakeBackend{
		destFields: []string{"customer_id", "firstname", "lastname"},
		srcFields:  []string{"custId", "firstName", "lastName"},
	})

	mapping, err := store.Generate(context.Background(), common.ObjectTypeContacts)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := common.FieldMapping{
		{Destination: "customer_id", Source: "custId"},
		{Destination: "firstname", Source: "firstName"},
		{Destination: "lastname", Source: "lastName"},
	}
	if len(mapping) != len(want) {
		t.Fatalf("got %d pairs, want %d", len(mapping), len(want))
	}
	for i := range want {
		if mapping[i] != want[i] {
			t.Errorf("pair %d = %+v, want %+v", i, mapping[i], want[i])
		}
	}
}

func TestGenerateTruncatesToShorterList(t *testing.T) {
	store := testStore(&fakeBackend{
		destFields: []string{"a", "b", "c"},
		srcFields:  []string{"x", "y"},
	})

	mapping, err := store.Generate(context.Background(), common.ObjectTypeOrders)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(mapping) != 2 {
		t.Fatalf("got %d pairs, want 2: %v", len(mapping), mapping)
	}
	if mapping[0] != (common.FieldPair{Destination: "a", Source: "x"}) {
		t.Errorf("pair 0 = %+v", mapping[0])
	}
	if mapping[1] != (common.FieldPair{Destination: "b", Source: "y"}) {
		t.Errorf("pair 1 = %+v", mapping[1])
	}
}

func TestGenerateAndPersistRoundTrip(t *testing.T) {
	backend := &fakeBackend{
		destFields: []string{"event_id"},
		srcFields:  []string{"eventId"},
	}
	store := testStore(backend)

	if _, err := store.GenerateAndPersist(context.Background(), common.ObjectTypeEvents); err != nil {
		t.Fatalf("GenerateAndPersist: %v", err)
	}

	loaded, err := store.Load(context.Background(), common.ObjectTypeEvents)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src, ok := loaded.Get("event_id"); !ok || src != "eventId" {
		t.Errorf("loaded mapping = %v", loaded)
	}
}

func TestLoadMissingMapping(t *testing.T) {
	store := testStore(&fakeBackend{})

	_, err := store.Load(context.Background(), common.ObjectTypeMemberships)
	var mappingErr *syncerrors.MappingError
	if !errors.As(err, &mappingErr) {
		t.Fatalf("err = %v, want MappingError", err)
	}
}
