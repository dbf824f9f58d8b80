package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemo_ConcurrentSameKeyLoadsOnce(t *testing.T) {
	m := NewMemo[string]()
	var calls int32

	load := func() (string, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(100 * time.Millisecond)
		return "config", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := m.GetOrLoad("config.json", load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"config", "config"}, results)
	assert.Equal(t, 1, m.Len())
}

func TestMemo_DifferentKeysDoNotSerialize(t *testing.T) {
	m := NewMemo[int]()
	load := func() (int, error) {
		time.Sleep(100 * time.Millisecond)
		return 1, nil
	}

	start := time.Now()
	var wg sync.WaitGroup
	for _, key := range []string{"a.geojson", "b.geojson"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			_, err := m.GetOrLoad(key, load)
			assert.NoError(t, err)
		}(key)
	}
	wg.Wait()

	assert.Less(t, time.Since(start), 190*time.Millisecond)
	assert.Equal(t, 2, m.Len())
}

func TestMemo_FailureIsNotCached(t *testing.T) {
	m := NewMemo[int]()
	calls := 0
	failing := func() (int, error) {
		calls++
		return 0, errors.New("file not found")
	}

	_, err := m.GetOrLoad("missing.geojson", failing)
	require.Error(t, err)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "missing.geojson", loadErr.Key)
	assert.EqualError(t, loadErr.Unwrap(), "file not found")

	v, err := m.GetOrLoad("missing.geojson", func() (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 2, calls)
}

func TestMemo_HitSkipsLoader(t *testing.T) {
	m := NewMemo[int]()
	_, err := m.GetOrLoad("k", func() (int, error) { return 7, nil })
	require.NoError(t, err)

	v, err := m.GetOrLoad("k", func() (int, error) {
		t.Fatal("loader must not run on a hit")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestMemo_WaitersObserveFailure(t *testing.T) {
	m := NewMemo[int]()
	release := make(chan struct{})
	var calls int32

	load := func() (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 0, errors.New("parse error")
	}

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.GetOrLoad("bad.json", load)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, err := range errs {
		assert.Error(t, err)
	}
	assert.Zero(t, m.Len())
}
