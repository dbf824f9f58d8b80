package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/geo-payloads/internal/config"
	"github.com/ukydev/geo-payloads/internal/fleet"
	"github.com/ukydev/geo-payloads/internal/generator"
	"github.com/ukydev/geo-payloads/internal/graphsim"
	"github.com/ukydev/geo-payloads/internal/handlers"
	"github.com/ukydev/geo-payloads/internal/publisher"
)

// walkerSource adapts a walker to the fleet. Payloads are "lat,lon" strings.
type walkerSource struct {
	walker *graphsim.Walker
}

func (s walkerSource) NextPayload(generator.Input) []byte {
	return s.walker.NextPayload()
}

// buildFleet plans one round trip per vehicle on the shared graph.
func buildFleet(g *graphsim.Graph, pub publisher.Publisher, s config.Settings, seed int64) (*fleet.Fleet, error) {
	f := fleet.New(pub, s.Interval, s.LinesFile)
	for i := 0; i < s.FleetSize; i++ {
		rnd := rand.New(rand.NewSource(seed + int64(i)))
		w, err := graphsim.NewWalker(g, rnd, graphsim.DefaultMaxAttempts)
		if err != nil {
			return nil, fmt.Errorf("vehicle %d: %w", i, err)
		}
		f.Add(fleet.Topic(s.TopicPrefix, i), walkerSource{walker: w})
	}
	return f, nil
}

func run(ctx context.Context, s config.Settings) error {
	if s.LinesFile == "" {
		return errors.New("LINES_FILE is not set")
	}
	lines, err := graphsim.LoadLines(s.LinesFile)
	if err != nil {
		return err
	}
	g := graphsim.Build(lines)

	clientID := fmt.Sprintf("%s-graph-%d", s.MQTTClientPrefix, os.Getpid())
	pub, err := publisher.NewMQTTPublisher(s.MQTTBroker, clientID, s.MQTTQoS)
	if err != nil {
		return err
	}
	defer pub.Close()

	f, err := buildFleet(g, pub, s, time.Now().UnixNano())
	if err != nil {
		return err
	}

	if s.StatusAddr != "" {
		srv := &http.Server{
			Addr:              s.StatusAddr,
			Handler:           handlers.NewStatusHandler(f).Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Status server failed")
			}
		}()
		defer srv.Close()
	}

	f.Run(ctx)
	return nil
}

func main() {
	s := config.LoadSettings()
	config.InitLogging(s.LogLevel, s.LogFormat)

	log.WithFields(log.Fields{
		"fleet_size": s.FleetSize,
		"lines":      s.LinesFile,
		"broker":     s.MQTTBroker,
	}).Info("Starting street graph simulator")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, s); err != nil {
		log.WithError(err).Fatal("Graph simulator failed")
	}
}
