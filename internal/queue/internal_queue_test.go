package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/pyqs-go/pyqs/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invocation(name string) task.Invocation {
	return task.Invocation{Task: name, Args: []interface{}{}, Kwargs: map[string]interface{}{}}
}

func TestInternalQueue_PutGet_FIFO(t *testing.T) {
	q := New(4)

	require.NoError(t, q.Put(invocation("a"), time.Second))
	require.NoError(t, q.Put(invocation("b"), time.Second))

	first, err := q.Get(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "a", first.Task)

	second, err := q.Get(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "b", second.Task)
}

func TestInternalQueue_BoundedCapacity(t *testing.T) {
	q := New(2)

	require.NoError(t, q.Put(invocation("a"), time.Second))
	require.NoError(t, q.Put(invocation("b"), time.Second))
	assert.Equal(t, 2, q.Len())

	err := q.Put(invocation("c"), 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 2, q.Len())
}

func TestInternalQueue_GetEmptyTimesOut(t *testing.T) {
	q := New(2)

	require.NoError(t, q.Put(invocation("a"), time.Second))
	require.NoError(t, q.Put(invocation("b"), time.Second))

	_, err := q.Get(time.Second)
	require.NoError(t, err)
	_, err = q.Get(time.Second)
	require.NoError(t, err)

	_, err = q.Get(100 * time.Millisecond)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestInternalQueue_ThreeItemsOverCapacityTwo(t *testing.T) {
	q := New(2)

	require.NoError(t, q.Put(invocation("s1"), time.Second))
	require.NoError(t, q.Put(invocation("s1"), time.Second))
	assert.Equal(t, 2, q.Len())

	err := q.Put(invocation("s1"), time.Second)
	assert.ErrorIs(t, err, ErrTimeout)

	_, err = q.Get(time.Second)
	require.NoError(t, err)
	_, err = q.Get(time.Second)
	require.NoError(t, err)

	_, err = q.Get(time.Second)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestInternalQueue_PutUnblocksWhenSpaceFrees(t *testing.T) {
	q := New(1)
	require.NoError(t, q.Put(invocation("a"), time.Second))

	var wg sync.WaitGroup
	wg.Add(1)
	var putErr error
	go func() {
		defer wg.Done()
		putErr = q.Put(invocation("b"), 2*time.Second)
	}()

	time.Sleep(50 * time.Millisecond)
	_, err := q.Get(time.Second)
	require.NoError(t, err)

	wg.Wait()
	assert.NoError(t, putErr)
	assert.Equal(t, 1, q.Len())
}

func TestInternalQueue_CloseDrainsThenEmpty(t *testing.T) {
	q := New(2)
	require.NoError(t, q.Put(invocation("a"), time.Second))

	q.Close()

	item, err := q.Get(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "a", item.Task)

	_, err = q.Get(time.Second)
	assert.ErrorIs(t, err, ErrEmpty)

	err = q.Put(invocation("b"), time.Second)
	assert.ErrorIs(t, err, ErrTimeout)
}
