package jobs

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omerfdk/restaurant-scraper/models"
)

func TestJobLifecycle(t *testing.T) {
	store := NewStore()
	job := store.Create([]string{"https://example.com"})
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, StatusPending, job.Status)

	require.NoError(t, store.MarkRunning(job.ID))
	got, ok := store.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusRunning, got.Status)
	assert.NotNil(t, got.StartedAt)

	results := []*models.ExtractionResult{{}}
	require.NoError(t, store.MarkCompleted(job.ID, results))
	got, _ = store.Get(job.ID)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Len(t, got.Results, 1)
	assert.NotNil(t, got.CompletedAt)
}

func TestJobInvalidTransitions(t *testing.T) {
	store := NewStore()
	job := store.Create(nil)

	assert.Error(t, store.MarkCompleted(job.ID, nil), "pending cannot jump to completed")

	require.NoError(t, store.MarkRunning(job.ID))
	require.NoError(t, store.MarkFailed(job.ID, errors.New("boom")))
	got, _ := store.Get(job.ID)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)

	assert.Error(t, store.MarkRunning(job.ID), "failed is terminal")
}

func TestJobUnknownID(t *testing.T) {
	store := NewStore()
	_, ok := store.Get("nope")
	assert.False(t, ok)
	assert.Error(t, store.MarkRunning("nope"))
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job := store.Create([]string{"https://example.com"})
			_ = store.MarkRunning(job.ID)
			_, _ = store.Get(job.ID)
		}()
	}
	wg.Wait()
	assert.Len(t, store.List(), 20)
}
