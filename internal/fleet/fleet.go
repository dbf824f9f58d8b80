// Package fleet runs one payload generator per simulated vehicle and
// publishes every payload on the vehicle's topic.
package fleet

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/geo-payloads/internal/generator"
	"github.com/ukydev/geo-payloads/internal/publisher"
)

// Source produces the next payload of one vehicle.
type Source interface {
	NextPayload(in generator.Input) []byte
}

// Status is the last known state of a vehicle.
type Status struct {
	ID        int             `json:"id"`
	Topic     string          `json:"topic"`
	Ticks     int64           `json:"ticks"`
	Failures  int64           `json:"failures"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type agent struct {
	id     int
	topic  string
	source Source
}

// Fleet drives a set of vehicles on a shared tick interval.
type Fleet struct {
	pub      publisher.Publisher
	interval time.Duration
	config   string
	agents   []agent

	mu       sync.RWMutex
	statuses map[int]*Status
}

// New creates a fleet publishing through pub. config names the run
// configuration handed to every generator.
func New(pub publisher.Publisher, interval time.Duration, config string) *Fleet {
	return &Fleet{
		pub:      pub,
		interval: interval,
		config:   config,
		statuses: make(map[int]*Status),
	}
}

// Add registers a vehicle publishing on topic.
func (f *Fleet) Add(topic string, source Source) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := len(f.agents)
	f.agents = append(f.agents, agent{id: id, topic: topic, source: source})
	f.statuses[id] = &Status{ID: id, Topic: topic}
	return id
}

// Run ticks every vehicle until ctx is cancelled.
func (f *Fleet) Run(ctx context.Context) {
	f.mu.RLock()
	agents := append([]agent(nil), f.agents...)
	f.mu.RUnlock()

	log.WithFields(log.Fields{
		"fleet_size": len(agents),
		"interval":   f.interval,
	}).Info("Starting fleet simulation")

	var wg sync.WaitGroup
	for _, a := range agents {
		wg.Add(1)
		go func(a agent) {
			defer wg.Done()
			f.simulate(ctx, a)
		}(a)
	}
	wg.Wait()
	log.Info("Fleet simulation stopped")
}

func (f *Fleet) simulate(ctx context.Context, a agent) {
	tick := time.NewTicker(f.interval)
	defer tick.Stop()
	f.Tick(a.id)
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			f.Tick(a.id)
		}
	}
}

// Tick generates and publishes one payload for vehicle id.
func (f *Fleet) Tick(id int) {
	f.mu.RLock()
	if id < 0 || id >= len(f.agents) {
		f.mu.RUnlock()
		return
	}
	a := f.agents[id]
	f.mu.RUnlock()

	payload := a.source.NextPayload(generator.Input{Topic: a.topic, Rate: f.interval, Source: f.config})
	failed := string(payload) == generator.FailurePayload

	if err := f.pub.Publish(a.topic, payload); err != nil {
		log.WithError(err).WithField("topic", a.topic).Error("Failed to publish payload")
		failed = true
	}

	f.mu.Lock()
	st := f.statuses[id]
	st.Ticks++
	if failed {
		st.Failures++
	}
	if json.Valid(payload) {
		st.Payload = append(json.RawMessage(nil), payload...)
	} else {
		st.Payload, _ = json.Marshal(string(payload))
	}
	st.UpdatedAt = time.Now().UTC()
	f.mu.Unlock()
}

// Statuses returns a snapshot of all vehicles ordered by id.
func (f *Fleet) Statuses() []Status {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Status, 0, len(f.statuses))
	for _, st := range f.statuses {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Status returns a snapshot of vehicle id.
func (f *Fleet) Status(id int) (Status, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	st, ok := f.statuses[id]
	if !ok {
		return Status{}, false
	}
	return *st, true
}

// Topic returns the topic of vehicle n for the given prefix.
func Topic(prefix string, n int) string {
	return fmt.Sprintf("%s%d", prefix, n)
}
