package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/geo-payloads/internal/config"
	"github.com/ukydev/geo-payloads/internal/fleet"
	"github.com/ukydev/geo-payloads/internal/generator"
	"github.com/ukydev/geo-payloads/internal/handlers"
	"github.com/ukydev/geo-payloads/internal/publisher"
)

// buildFleet creates one generator per vehicle, publishing on prefix+n.
func buildFleet(rt *generator.Runtime, pub publisher.Publisher, s config.Settings) *fleet.Fleet {
	f := fleet.New(pub, s.Interval, s.ConfigFile)
	for i := 0; i < s.FleetSize; i++ {
		f.Add(fleet.Topic(s.TopicPrefix, i), generator.New(rt))
	}
	return f
}

func startStatusServer(addr string, f *fleet.Fleet) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handlers.NewStatusHandler(f).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithField("addr", addr).Info("Status server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Status server failed")
		}
	}()
	return srv
}

func run(ctx context.Context, s config.Settings) error {
	rt, closeRuntime, err := generator.Open(ctx, s)
	if err != nil {
		return err
	}
	defer closeRuntime()

	clientID := fmt.Sprintf("%s-%d", s.MQTTClientPrefix, os.Getpid())
	pub, err := publisher.NewMQTTPublisher(s.MQTTBroker, clientID, s.MQTTQoS)
	if err != nil {
		return err
	}
	defer pub.Close()

	f := buildFleet(rt, pub, s)

	if s.StatusAddr != "" {
		srv := startStatusServer(s.StatusAddr, f)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	f.Run(ctx)
	return nil
}

func main() {
	s := config.LoadSettings()
	config.InitLogging(s.LogLevel, s.LogFormat)

	log.WithFields(log.Fields{
		"fleet_size": s.FleetSize,
		"broker":     s.MQTTBroker,
		"config":     s.ConfigFile,
		"interval":   s.Interval,
	}).Info("Starting route simulator")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, s); err != nil {
		log.WithError(err).Fatal("Simulator failed")
	}
}
