package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/geo-payloads/internal/config"
	"github.com/ukydev/geo-payloads/internal/generator"
	"github.com/ukydev/geo-payloads/internal/models"
)

type noRouter struct{}

func (noRouter) Route(context.Context, models.Location, models.Location, string) (*models.Route, error) {
	return nil, errors.New("no routes in tests")
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) Close() {}

func TestBuildFleet(t *testing.T) {
	s := config.Settings{
		FleetSize:   3,
		TopicPrefix: "vehicles/trucks/",
		Interval:    time.Second,
		ConfigFile:  "missing.json",
	}
	rt := generator.NewRuntime(noRouter{}, s, nil)
	pub := &recordingPublisher{}

	f := buildFleet(rt, pub, s)

	statuses := f.Statuses()
	require.Len(t, statuses, 3)
	assert.Equal(t, "vehicles/trucks/2", statuses[2].Topic)

	// A missing run config degrades to the failure payload.
	f.Tick(0)
	st, ok := f.Status(0)
	require.True(t, ok)
	assert.Equal(t, int64(1), st.Failures)
	assert.JSONEq(t, generator.FailurePayload, string(st.Payload))
	assert.Equal(t, []string{"vehicles/trucks/0"}, pub.topics)
}

func TestStartStatusServer(t *testing.T) {
	s := config.Settings{FleetSize: 2, TopicPrefix: "t/", Interval: time.Second}
	f := buildFleet(generator.NewRuntime(noRouter{}, s, nil), &recordingPublisher{}, s)

	srv := startStatusServer("127.0.0.1:18090", f)
	defer srv.Close()

	var resp *http.Response
	require.Eventually(t, func() bool {
		var err error
		resp, err = http.Get("http://127.0.0.1:18090/agents")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Count)
}
