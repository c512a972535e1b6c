package coupling

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSet_E1Scenario(t *testing.T) {
	s := New(nil)
	require.True(t, s.Insert(5))
	require.True(t, s.Insert(3))
	require.True(t, s.Insert(7))
	require.True(t, s.Contains(3))
	require.False(t, s.Contains(4))
	require.True(t, s.Remove(5))
	require.False(t, s.Contains(5))
	require.Equal(t, 2, s.Size())
}

func TestSet_InsertTwiceSecondFails(t *testing.T) {
	s := New(nil)
	require.True(t, s.Insert(10))
	require.False(t, s.Insert(10))
	require.True(t, s.Contains(10))
}

func TestSet_RemoveAbsentNoOp(t *testing.T) {
	s := New(nil)
	require.False(t, s.Remove(42))
	require.Equal(t, 0, s.Size())
}

func TestSet_RemovePresent(t *testing.T) {
	s := New(nil)
	s.Insert(1)
	require.True(t, s.Remove(1))
	require.False(t, s.Contains(1))
}

func TestSet_KeepsKeysSortedUnderConcurrency(t *testing.T) {
	s := New(nil)
	const n = 500
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(v int64) {
			defer wg.Done()
			s.Insert(v)
		}(int64(i))
	}
	wg.Wait()

	require.Equal(t, n, s.Size())
	prev := KeyMin
	for curr := s.head.next; curr.next != nil; curr = curr.next {
		require.Greater(t, curr.val, prev)
		prev = curr.val
	}
}

func TestSet_ConcurrentInsertRemoveConverges(t *testing.T) {
	s := New(nil)
	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(v int64) {
			defer wg.Done()
			s.Insert(v)
			s.Remove(v)
		}(int64(i))
	}
	wg.Wait()
	require.Equal(t, 0, s.Size())
}
