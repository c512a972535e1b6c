package lazy

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

func TestSet_InsertTwice(t *testing.T) {
	s := New(nil)
	require.True(t, s.Insert(1))
	require.False(t, s.Insert(1))
	require.True(t, s.Contains(1))
}

func TestSet_RemoveAbsent(t *testing.T) {
	s := New(nil)
	require.False(t, s.Remove(1))
}

func TestSet_ContainsIsWaitFreeDuringMutation(t *testing.T) {
	s := New(nil)
	const n = 300
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(v int64) {
			defer wg.Done()
			s.Insert(v)
		}(int64(i))
	}
	for i := 0; i < n; i++ {
		s.Contains(int64(i)) // must never block or panic concurrently with inserts
	}
	wg.Wait()
	require.Equal(t, n, s.Size())
}

func TestSet_ConcurrentInsertRemoveNoDuplicates(t *testing.T) {
	s := New(nil)
	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(v int64) {
			defer wg.Done()
			require.True(t, s.Insert(v))
			require.False(t, s.Insert(v))
			require.True(t, s.Remove(v))
		}(int64(i))
	}
	wg.Wait()
	require.Equal(t, 0, s.Size())
}
