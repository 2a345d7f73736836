package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type namedJob struct {
	name string
}

func (j *namedJob) Name() string                  { return j.name }
func (j *namedJob) Run(ctx context.Context) error { return nil }

func TestRegistryPreservesOrderAndSkipsNil(t *testing.T) {
	t.Parallel()

	first := &namedJob{name: "first"}
	second := &namedJob{name: "second"}

	registry := NewRegistry(first, nil, second)
	registry.Register(nil)
	registry.Register(&namedJob{name: "third"})

	jobs := registry.Jobs()
	assert.Len(t, jobs, 3)
	assert.Equal(t, "first", jobs[0].Name())
	assert.Equal(t, "second", jobs[1].Name())
	assert.Equal(t, "third", jobs[2].Name())

	assert.Equal(t, 3, registry.Len())
	assert.Equal(t, []string{"first", "second", "third"}, registry.Names())
}
