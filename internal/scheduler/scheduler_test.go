package scheduler

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
	runs int
	err  error
}

func (j *stubJob) Run() error {
	j.runs++
	return j.err
}

func (j *stubJob) Name() string { return j.name }

func TestScheduleValidSpec(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.Schedule("*/15 * * * *", &stubJob{name: "cleanup"})
	assert.NoError(t, err)
}

func TestScheduleInvalidSpec(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.Schedule("not a cron spec", &stubJob{name: "cleanup"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cleanup")
}

func TestStartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.Schedule("* * * * *", &stubJob{name: "noop", err: errors.New("boom")}))

	s.Start()
	s.Stop()
}
