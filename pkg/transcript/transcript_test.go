package transcript_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	// Packages
	schema "github.com/mutablelogic/go-agentchat/pkg/schema"
	transcript "github.com/mutablelogic/go-agentchat/pkg/transcript"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

func Test_transcript_001(t *testing.T) {
	assert := assert.New(t)
	store := transcript.New()
	assert.NotNil(store)
	assert.Equal(0, store.Len())
	assert.Empty(store.Entries())
	_, ok := store.At(0)
	assert.False(ok)
}

func Test_transcript_002(t *testing.T) {
	assert := assert.New(t)
	store := transcript.New()

	a := store.Append(schema.NewEvent(schema.KindUserQuery, "hello"), true)
	b := store.Append(schema.NewEvent(schema.KindThought, "Thought: hmm"), false)
	assert.Equal(0, a.Index)
	assert.Equal(1, b.Index)
	assert.True(a.Local)
	assert.False(b.Local)
	assert.NotEqual(a.ID, b.ID)
	assert.False(a.Time.IsZero())

	entries := store.Entries()
	assert.Len(entries, 2)
	assert.Equal(a, entries[0])
	assert.Equal(b, entries[1])

	got, ok := store.At(1)
	assert.True(ok)
	assert.Equal(b, got)
}

func Test_transcript_003(t *testing.T) {
	assert := assert.New(t)
	store := transcript.New()
	store.Append(schema.NewEvent(schema.KindUserQuery, "one"), true)

	// A snapshot is not a live view
	snapshot := store.Entries()
	store.Append(schema.NewEvent(schema.KindFinalAnswer, "two"), false)
	assert.Len(snapshot, 1)
	assert.Equal(2, store.Len())

	// Changing a snapshot does not change the store
	snapshot[0].Content = "changed"
	first, _ := store.At(0)
	assert.Equal("one", first.Content)
}

func Test_transcript_004(t *testing.T) {
	assert := assert.New(t)
	store := transcript.New()

	var seen []schema.Entry
	cancel := store.Subscribe(func(e schema.Entry) {
		// The entry is visible by the time observers run
		assert.Equal(e.Index+1, store.Len())
		seen = append(seen, e)
	})
	for i := 0; i < 5; i++ {
		store.Append(schema.NewEvent(schema.KindObservation, fmt.Sprint(i)), false)
	}
	assert.Len(seen, 5)
	for i, e := range seen {
		assert.Equal(i, e.Index)
		assert.Equal(fmt.Sprint(i), e.Content)
	}

	// No more notifications after cancel, and cancel is idempotent
	cancel()
	cancel()
	store.Append(schema.NewEvent(schema.KindObservation, "late"), false)
	assert.Len(seen, 5)
}

func Test_transcript_005(t *testing.T) {
	assert := assert.New(t)
	store := transcript.New()

	// Observers are called in registration order
	var order []string
	store.Subscribe(func(schema.Entry) { order = append(order, "a") })
	store.Subscribe(func(schema.Entry) { order = append(order, "b") })
	store.Append(schema.NewEvent(schema.KindError, "x"), false)
	assert.Equal([]string{"a", "b"}, order)
}

func Test_transcript_006(t *testing.T) {
	assert := assert.New(t)
	store := transcript.New()

	// Concurrent appends are each notified once, in index order
	var mu sync.Mutex
	var indexes []int
	store.Subscribe(func(e schema.Entry) {
		mu.Lock()
		indexes = append(indexes, e.Index)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				store.Append(schema.NewEvent(schema.KindObservation, "x"), false)
			}
		}()
	}
	wg.Wait()

	assert.Equal(400, store.Len())
	assert.Len(indexes, 400)
	for i, index := range indexes {
		assert.Equal(i, index)
	}
	for i, e := range store.Entries() {
		assert.Equal(i, e.Index)
	}
}

func Test_transcript_007(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	store := transcript.New()
	store.Append(schema.NewEvent(schema.KindUserQuery, "q"), true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := store.Watch(ctx)

	// Existing entries first, then new ones
	store.Append(schema.NewEvent(schema.KindThought, "t"), false)
	store.Append(schema.NewEvent(schema.KindFinalAnswer, "a"), false)

	var got []string
	for len(got) < 3 {
		select {
		case e, ok := <-ch:
			require.True(ok)
			got = append(got, e.Content)
		case <-time.After(time.Second):
			require.FailNow("timed out waiting for entries")
		}
	}
	assert.Equal([]string{"q", "t", "a"}, got)

	// Closed when the context is done
	cancel()
	select {
	case _, ok := <-ch:
		for ok {
			_, ok = <-ch
		}
	case <-time.After(time.Second):
		require.FailNow("watch channel not closed")
	}
}
