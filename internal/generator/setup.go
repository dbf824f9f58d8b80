package generator

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/geo-payloads/internal/config"
	"github.com/ukydev/geo-payloads/internal/db"
	"github.com/ukydev/geo-payloads/internal/routing"
)

// Open builds the process runtime from the settings: the routing engine
// (with its optional route cache) and, when MONGO_URI is set, the MongoDB
// waypoint store. The returned function releases both.
func Open(ctx context.Context, s config.Settings) (*Runtime, func(), error) {
	router, closeRouter, err := routing.NewRouter(s)
	if err != nil {
		return nil, nil, fmt.Errorf("create router: %w", err)
	}

	var warehouses func(string) db.WarehouseCollection
	closeMongo := func() {}
	if s.MongoURI != "" {
		client, err := db.ConnectMongo(ctx, s.MongoURI)
		if err != nil {
			_ = closeRouter()
			return nil, nil, err
		}
		log.WithField("database", s.MongoDB).Info("Connected to MongoDB")
		warehouses = db.WarehouseResolver(client, s.MongoDB)
		closeMongo = func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				log.WithError(err).Warn("Failed to disconnect from MongoDB")
			}
		}
	}

	closeAll := func() {
		closeMongo()
		if err := closeRouter(); err != nil {
			log.WithError(err).Warn("Failed to close router")
		}
	}
	return NewRuntime(router, s, warehouses), closeAll, nil
}
