package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/geo-payloads/internal/config"
	"github.com/ukydev/geo-payloads/internal/generator"
)

const (
	warmupTicks    = 10
	warmupInterval = 500 * time.Millisecond
)

// warmup ticks one generator so the routing engine, the route cache and the
// resource caches are loaded before a load test starts.
func warmup(g *generator.RoutePayloadGenerator, configFile string, ticks int, interval time.Duration) [][]byte {
	payloads := make([][]byte, 0, ticks)
	for i := 0; i < ticks; i++ {
		if i > 0 {
			time.Sleep(interval)
		}
		payload := g.NextPayload(generator.Input{Topic: "init-cache", Rate: interval, Source: configFile})
		log.WithFields(log.Fields{"tick": i, "payload": string(payload)}).Info("Generated payload")
		payloads = append(payloads, payload)
	}
	return payloads
}

func main() {
	s := config.LoadSettings()
	config.InitLogging(s.LogLevel, s.LogFormat)

	start := time.Now()
	rt, closeRuntime, err := generator.Open(context.Background(), s)
	if err != nil {
		log.WithError(err).Fatal("Failed to open runtime")
	}
	defer closeRuntime()

	warmup(generator.New(rt), s.ConfigFile, warmupTicks, warmupInterval)
	log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("Caches initialized")
}
