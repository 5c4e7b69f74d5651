package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jjpenad/cfma-acgi-integration/pkg/common"
	"github.com/jjpenad/cfma-acgi-integration/pkg/config"
	"github.com/jjpenad/cfma-acgi-integration/pkg/hubspot"
	"github.com/jjpenad/cfma-acgi-integration/pkg/logger"
	"github.com/jjpenad/cfma-acgi-integration/pkg/mapping"
	"github.com/jjpenad/cfma-acgi-integration/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "Path to optional JSON configuration file")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	objectType := flag.String("type", "", "Object type: contacts, memberships, orders, events, registrations")
	show := flag.Bool("show", false, "Print the stored mapping for the object type")
	generate := flag.Bool("generate", false, "Regenerate the mapping from the importance lists and store it")
	reset := flag.Bool("reset", false, "Remove the mapping, preferences and importance lists for the object type")
	seed := flag.Bool("seed-destination", false, "Load the destination property list into the destination importance list")
	flag.Parse()

	log := logger.New()
	log.SetLevel(*logLevel)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *objectType == "" {
		log.Fatal("-type is required")
	}
	target := common.ObjectType(*objectType)
	switch target {
	case common.ObjectTypeContacts, common.ObjectTypeMemberships, common.ObjectTypeOrders,
		common.ObjectTypeEvents, common.ObjectTypeRegistrations:
	default:
		log.Fatalf("Unknown object type %q", *objectType)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	recordStore, err := store.Connect(ctx, cfg.Store.URI, cfg.Store.Database, log)
	if err != nil {
		log.Fatalf("Failed to connect record store: %v", err)
	}
	defer recordStore.Close(ctx)

	mappings := mapping.NewStore(recordStore, log)

	switch {
	case *show:
		stored, err := mappings.Load(ctx, target)
		if err != nil {
			log.Fatalf("Failed to load mapping: %v", err)
		}
		fmt.Printf("Mapping for %s (%d pairs):\n", target, len(stored))
		for _, pair := range stored {
			fmt.Printf("  %-40s <- %s\n", pair.Destination, pair.Source)
		}

	case *generate:
		generated, err := mappings.GenerateAndPersist(ctx, target)
		if err != nil {
			log.Fatalf("Failed to generate mapping: %v", err)
		}
		fmt.Printf("Stored %d pairs for %s\n", len(generated), target)

	case *reset:
		if err := recordStore.ResetObjectType(ctx, target); err != nil {
			log.Fatalf("Failed to reset %s: %v", target, err)
		}
		fmt.Printf("Reset %s\n", target)

	case *seed:
		if err := seedDestinationFields(ctx, cfg, recordStore, target, log); err != nil {
			log.Fatalf("Failed to seed destination fields: %v", err)
		}

	default:
		fmt.Println("Nothing to do: pass one of -show, -generate, -reset, -seed-destination")
		os.Exit(2)
	}
}

// seedDestinationFields pulls the destination property definitions for the
// object type and stores them as a fresh importance list, everything marked
// unimportant so an operator can curate it.
func seedDestinationFields(ctx context.Context, cfg *config.Config, recordStore *store.Store, objectType common.ObjectType, log *logger.Logger) error {
	client := hubspot.NewClient(cfg.HubSpot.BaseURL, cfg.HubSpot.KeyFor(objectType),
		time.Duration(cfg.HubSpot.TimeoutSecs)*time.Second, cfg.HubSpot.RequestsPerSecond, log)

	properties, err := client.Properties(ctx, cfg.HubSpot.CustomObjectTypeID(objectType))
	if err != nil {
		return err
	}

	fields := make([]store.FormField, 0, len(properties))
	for i, p := range properties {
		fields = append(fields, store.FormField{
			Name:       p.Name,
			Label:      p.Label,
			OrderIndex: i,
		})
	}
	if err := recordStore.ReplaceFieldList(ctx, true, objectType, fields); err != nil {
		return err
	}
	fmt.Printf("Seeded %d destination fields for %s\n", len(fields), objectType)
	return nil
}
