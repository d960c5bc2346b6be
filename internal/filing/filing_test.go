package filing

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberFormat(t *testing.T) {
	assert.Equal(t, "PQRSD-2024-000001", Number(2024, 1))
	assert.Equal(t, "PQRSD-2024-000042", Number(2024, 42))
	assert.Equal(t, "PQRSD-2025-999999", Number(2025, 999999))
}

func TestNumberWidensPastPadding(t *testing.T) {
	// The field grows instead of truncating once the sequence exceeds the
	// padded width.
	assert.Equal(t, "PQRSD-2024-1000000", Number(2024, 1000000))
	assert.Equal(t, "PQRSD-2024-12345678", Number(2024, 12345678))
}

func TestAccessCodeAlphabetAndLength(t *testing.T) {
	code, err := AccessCode(DefaultAccessCodeLength)
	require.NoError(t, err)
	assert.Len(t, code, DefaultAccessCodeLength)
	for _, r := range code {
		assert.True(t, strings.ContainsRune(accessCodeAlphabet, r), "unexpected character %q", r)
	}

	// Ambiguous characters never appear.
	for _, banned := range "01OI" {
		assert.False(t, strings.ContainsRune(accessCodeAlphabet, banned))
	}
}

func TestAccessCodeDefaultsLength(t *testing.T) {
	code, err := AccessCode(0)
	require.NoError(t, err)
	assert.Len(t, code, DefaultAccessCodeLength)
}

type memorySequencer struct {
	mu     sync.Mutex
	values map[int]int64
}

func (s *memorySequencer) Next(_ context.Context, year int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[int]int64)
	}
	s.values[year]++
	return s.values[year], nil
}

func TestConcurrentSequencingYieldsUniqueNumbers(t *testing.T) {
	seq := &memorySequencer{}
	const workers = 50
	const perWorker = 20

	results := make(chan string, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				n, err := seq.Next(context.Background(), 2024)
				if err != nil {
					t.Error(err)
					return
				}
				results <- Number(2024, n)
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]struct{}, workers*perWorker)
	for number := range results {
		_, dup := seen[number]
		assert.False(t, dup, "duplicate filing number %s", number)
		seen[number] = struct{}{}
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestSequencesAreIndependentPerYear(t *testing.T) {
	seq := &memorySequencer{}
	n2024, err := seq.Next(context.Background(), 2024)
	require.NoError(t, err)
	n2025, err := seq.Next(context.Background(), 2025)
	require.NoError(t, err)

	assert.Equal(t, int64(1), n2024)
	assert.Equal(t, int64(1), n2025)
	assert.NotEqual(t, Number(2024, n2024), Number(2025, n2025))
}
