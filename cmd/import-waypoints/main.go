package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/geo-payloads/internal/config"
	"github.com/ukydev/geo-payloads/internal/db"
	"github.com/ukydev/geo-payloads/internal/generator"
)

const defaultCollection = "warehouse"

// importFile stores the point features of path in the collection.
func importFile(ctx context.Context, coll db.WarehouseCollection, path string) (int, error) {
	warehouses, err := config.LoadWarehouseFile(path)
	if err != nil {
		return 0, err
	}
	if len(warehouses) == 0 {
		return 0, fmt.Errorf("%s contains no point features", path)
	}
	return coll.InsertWarehouses(ctx, warehouses)
}

var errUsage = errors.New("usage: import-waypoints <file.geojson> [collection]")

// run imports the GeoJSON file named in args into MongoDB. Errors are
// returned so the deferred disconnect always runs.
func run(ctx context.Context, s config.Settings, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	path := args[0]
	collection := defaultCollection
	if len(args) > 1 {
		collection = args[1]
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	client, err := db.ConnectMongo(ctx, s.MongoURI)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer client.Disconnect(context.Background())

	coll := db.WarehouseResolver(client, s.MongoDB)(collection)
	n, err := importFile(ctx, coll, path)
	if err != nil {
		return fmt.Errorf("import waypoints: %w", err)
	}
	log.WithFields(log.Fields{
		"file":       path,
		"database":   s.MongoDB,
		"collection": collection,
		"inserted":   n,
		"source":     generatorSource(collection),
	}).Info("Imported waypoints")
	return nil
}

func main() {
	s := config.LoadSettings()
	config.InitLogging(s.LogLevel, s.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := run(ctx, s, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		log.WithError(err).Fatal("Failed to import waypoints")
	}
}

// generatorSource is the locationFile value that reads the collection back.
func generatorSource(collection string) string {
	return generator.MongoPrefix + collection
}
