// Package store is the MongoDB-backed configuration and mapping record
// store. The core treats it as a key/record store: app-state key→value
// documents, one wholesale-replaced mapping document per object type, and
// the operator-curated importance lists that drive mapping generation.
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jjpenad/cfma-acgi-integration/pkg/common"
	"github.com/jjpenad/cfma-acgi-integration/pkg/logger"
	"github.com/jjpenad/cfma-acgi-integration/pkg/syncerrors"
)

const (
	collAppState          = "app_state"
	collFieldMappings     = "field_mappings"
	collDestinationFields = "destination_fields"
	collSourceFields      = "source_fields"
)

// Store represents a MongoDB-backed record store.
type Store struct {
	client   *mongo.Client
	database *mongo.Database
	log      *logger.Logger
}

// Connect creates a new store connection and verifies it with a ping.
func Connect(ctx context.Context, connectionString, databaseName string, log *logger.Logger) (*Store, error) {
	clientOptions := options.Client().
		ApplyURI(connectionString).
		SetConnectTimeout(30 * time.Second).
		SetSocketTimeout(60 * time.Second)

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Store{
		client:   client,
		database: client.Database(databaseName),
		log:      log,
	}, nil
}

// Close closes the store connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// GetValue reads one app-state document into out. The boolean reports
// whether the key exists.
func (s *Store) GetValue(ctx context.Context, key string, out interface{}) (bool, error) {
	res := s.database.Collection(collAppState).FindOne(ctx, bson.M{"_id": key})
	if err := res.Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		return false, fmt.Errorf("failed to read app state %q: %w", key, err)
	}

	var doc struct {
		// RawValue defers decoding so values can be scalars or documents.
		Value bson.RawValue `bson:"value"`
	}
	if err := res.Decode(&doc); err != nil {
		return false, fmt.Errorf("failed to decode app state %q: %w", key, err)
	}
	if err := doc.Value.Unmarshal(out); err != nil {
		return false, fmt.Errorf("failed to decode app state %q: %w", key, err)
	}
	return true, nil
}

// SetValue writes one app-state document, replacing any previous value.
func (s *Store) SetValue(ctx context.Context, key string, value interface{}) error {
	_, err := s.database.Collection(collAppState).ReplaceOne(ctx,
		bson.M{"_id": key},
		bson.M{"_id": key, "value": value, "updatedAt": time.Now().UnixMilli()},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write app state %q: %w", key, err)
	}
	return nil
}

// LoadMapping returns the persisted field mapping for an object type. A
// missing document is a MappingError: nothing to do for that object type.
func (s *Store) LoadMapping(ctx context.Context, objectType common.ObjectType) (common.FieldMapping, error) {
	res := s.database.Collection(collFieldMappings).FindOne(ctx, bson.M{"_id": string(objectType)})
	if err := res.Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &syncerrors.MappingError{ObjectType: string(objectType)}
		}
		return nil, fmt.Errorf("failed to load mapping for %s: %w", objectType, err)
	}

	var doc struct {
		Pairs common.FieldMapping `bson:"pairs"`
	}
	if err := res.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode mapping for %s: %w", objectType, err)
	}
	if len(doc.Pairs) == 0 {
		return nil, &syncerrors.MappingError{ObjectType: string(objectType)}
	}
	return doc.Pairs, nil
}

// SaveMapping replaces the mapping document for an object type wholesale.
// Mappings are never merged.
func (s *Store) SaveMapping(ctx context.Context, objectType common.ObjectType, mapping common.FieldMapping) error {
	_, err := s.database.Collection(collFieldMappings).ReplaceOne(ctx,
		bson.M{"_id": string(objectType)},
		bson.M{"_id": string(objectType), "pairs": mapping, "updatedAt": time.Now().UnixMilli()},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save mapping for %s: %w", objectType, err)
	}
	return nil
}

// FormField is one operator-curated field entry of an importance list.
type FormField struct {
	ObjectType string `bson:"objectType"`
	Name       string `bson:"name"`
	Label      string `bson:"label,omitempty"`
	Important  bool   `bson:"important"`
	OrderIndex int    `bson:"orderIndex"`
}

// ImportantDestinationFields returns the destination importance list for an
// object type, ordered by the stored display order.
func (s *Store) ImportantDestinationFields(ctx context.Context, objectType common.ObjectType) ([]string, error) {
	return s.importantFields(ctx, collDestinationFields, objectType)
}

// ImportantSourceFields returns the source importance list for an object
// type, ordered by its own stored order.
func (s *Store) ImportantSourceFields(ctx context.Context, objectType common.ObjectType) ([]string, error) {
	return s.importantFields(ctx, collSourceFields, objectType)
}

func (s *Store) importantFields(ctx context.Context, collection string, objectType common.ObjectType) ([]string, error) {
	cursor, err := s.database.Collection(collection).Find(ctx,
		bson.M{"objectType": string(objectType), "important": true},
		options.Find().SetSort(bson.D{{Key: "orderIndex", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s for %s: %w", collection, objectType, err)
	}
	defer cursor.Close(ctx)

	var names []string
	for cursor.Next(ctx) {
		var field FormField
		if err := cursor.Decode(&field); err != nil {
			return nil, fmt.Errorf("failed to decode %s entry: %w", collection, err)
		}
		names = append(names, field.Name)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s for %s: %w", collection, objectType, err)
	}
	return names, nil
}

// ReplaceFieldList replaces the full field list for an object type in one of
// the importance-list collections.
func (s *Store) ReplaceFieldList(ctx context.Context, destination bool, objectType common.ObjectType, fields []FormField) error {
	collection := collSourceFields
	if destination {
		collection = collDestinationFields
	}

	coll := s.database.Collection(collection)
	if _, err := coll.DeleteMany(ctx, bson.M{"objectType": string(objectType)}); err != nil {
		return fmt.Errorf("failed to clear %s for %s: %w", collection, objectType, err)
	}
	if len(fields) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		f.ObjectType = string(objectType)
		docs = append(docs, f)
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to write %s for %s: %w", collection, objectType, err)
	}
	return nil
}

// ResetObjectType removes the mapping, preferences and importance lists for
// one object type.
func (s *Store) ResetObjectType(ctx context.Context, objectType common.ObjectType) error {
	if _, err := s.database.Collection(collFieldMappings).DeleteOne(ctx, bson.M{"_id": string(objectType)}); err != nil {
		return fmt.Errorf("failed to delete mapping for %s: %w", objectType, err)
	}
	for _, collection := range []string{collDestinationFields, collSourceFields} {
		if _, err := s.database.Collection(collection).DeleteMany(ctx, bson.M{"objectType": string(objectType)}); err != nil {
			return fmt.Errorf("failed to clear %s for %s: %w", collection, objectType, err)
		}
	}
	if _, err := s.database.Collection(collAppState).DeleteOne(ctx,
		bson.M{"_id": prefsKey(objectType)}); err != nil {
		return fmt.Errorf("failed to clear preferences for %s: %w", objectType, err)
	}
	return nil
}
