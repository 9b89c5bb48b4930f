package cmd

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJobs(t *testing.T) {
	jobs, err := parseJobs([]string{"users=users.json", " posts = sync/posts.yaml "})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "users", jobs[0].entity)
	assert.Equal(t, "users.json", jobs[0].source)
	assert.Equal(t, "posts", jobs[1].entity)
	assert.Equal(t, "sync/posts.yaml", jobs[1].source)

	tests := []struct {
		name  string
		specs []string
	}{
		{"Empty", nil},
		{"Missing Separator", []string{"users"}},
		{"Missing Entity", []string{"=users.json"}},
		{"Missing Path", []string{"users="}},
		{"Duplicate Entity", []string{"users=a.json", "users=b.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseJobs(tt.specs)
			assert.Error(t, err)
		})
	}
}

func TestForEachJob(t *testing.T) {
	jobs, err := parseJobs([]string{"a=1", "b=2", "c=3", "d=4", "e=5", "f=6"})
	require.NoError(t, err)

	var calls atomic.Int32
	err = forEachJob(context.Background(), jobs, func(_ context.Context, job *syncJob) error {
		calls.Add(1)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, int32(6), calls.Load())

	boom := errors.New("boom")
	err = forEachJob(context.Background(), jobs, func(_ context.Context, job *syncJob) error {
		if job.entity == "c" {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}
