package fleet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/geo-payloads/internal/generator"
)

// MockPublisher is a mock implementation of publisher.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(topic string, payload []byte) error {
	args := m.Called(topic, payload)
	return args.Error(0)
}

func (m *MockPublisher) Close() {
	m.Called()
}

type staticSource struct {
	mu      sync.Mutex
	payload string
	inputs  []generator.Input
}

func (s *staticSource) NextPayload(in generator.Input) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, in)
	return []byte(s.payload)
}

func (s *staticSource) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inputs)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "vehicles/trucks/7", Topic("vehicles/trucks/", 7))
}

func TestTick_PublishesAndRecords(t *testing.T) {
	pub := new(MockPublisher)
	payload := `{"location":{"lat":1,"lon":2},"speed":80,"speedLimit":100,"routeId":"r1","break":false}`
	pub.On("Publish", "vehicles/trucks/0", []byte(payload)).Return(nil)

	f := New(pub, time.Second, "config.json")
	src := &staticSource{payload: payload}
	id := f.Add(Topic("vehicles/trucks/", 0), src)

	f.Tick(id)

	pub.AssertExpectations(t)
	require.Len(t, src.inputs, 1)
	assert.Equal(t, generator.Input{Topic: "vehicles/trucks/0", Rate: time.Second, Source: "config.json"}, src.inputs[0])

	st, ok := f.Status(id)
	require.True(t, ok)
	assert.Equal(t, int64(1), st.Ticks)
	assert.Equal(t, int64(0), st.Failures)
	assert.JSONEq(t, payload, string(st.Payload))
	assert.False(t, st.UpdatedAt.IsZero())
}

func TestTick_CountsFailures(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", "a", []byte(generator.FailurePayload)).Return(nil)
	pub.On("Publish", "b", mock.Anything).Return(errors.New("broker down"))

	f := New(pub, time.Second, "config.json")
	a := f.Add("a", &staticSource{payload: generator.FailurePayload})
	b := f.Add("b", &staticSource{payload: `{"break":true}`})

	f.Tick(a)
	f.Tick(b)

	stA, _ := f.Status(a)
	stB, _ := f.Status(b)
	assert.Equal(t, int64(1), stA.Failures)
	assert.Equal(t, int64(1), stB.Failures)
}

func TestTick_NonJSONPayload(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", "t", []byte("52.5,13.4")).Return(nil)

	f := New(pub, time.Second, "")
	id := f.Add("t", &staticSource{payload: "52.5,13.4"})
	f.Tick(id)

	st, _ := f.Status(id)
	assert.Equal(t, `"52.5,13.4"`, string(st.Payload))
}

func TestTick_UnknownAgent(t *testing.T) {
	f := New(new(MockPublisher), time.Second, "")
	assert.NotPanics(t, func() { f.Tick(3) })
	_, ok := f.Status(3)
	assert.False(t, ok)
}

func TestStatuses_Ordered(t *testing.T) {
	f := New(new(MockPublisher), time.Second, "")
	for i := 0; i < 5; i++ {
		f.Add(Topic("t/", i), &staticSource{})
	}

	statuses := f.Statuses()
	require.Len(t, statuses, 5)
	for i, st := range statuses {
		assert.Equal(t, i, st.ID)
		assert.Equal(t, Topic("t/", i), st.Topic)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	f := New(pub, 10*time.Millisecond, "config.json")
	sources := []*staticSource{{payload: "{}"}, {payload: "{}"}}
	for i, s := range sources {
		f.Add(Topic("t/", i), s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return sources[0].calls() >= 3 && sources[1].calls() >= 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fleet did not stop")
	}
}
