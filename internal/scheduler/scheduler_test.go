package scheduler_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/rottenpen/volar/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTasksRunInOrder(t *testing.T) {
	s := scheduler.NewScheduler(4)
	s.Run()
	defer s.Stop()

	var mu sync.Mutex
	var order []int
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Schedule(scheduler.Task{
			Name: "append",
			Execute: func() error {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, i)
				return nil
			},
		}))
	}
	s.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestFailingTasksDoNotStopTheQueue(t *testing.T) {
	s := scheduler.NewScheduler(2)
	s.Run()
	defer s.Stop()

	ran := false
	require.NoError(t, s.Schedule(scheduler.Task{Name: "err", Execute: func() error { return errors.New("x") }}))
	require.NoError(t, s.Schedule(scheduler.Task{Name: "panic", Execute: func() error { panic("y") }}))
	require.NoError(t, s.Schedule(scheduler.Task{Name: "ok", Execute: func() error { ran = true; return nil }}))
	s.Wait()

	assert.True(t, ran)
}

func TestScheduleAfterStop(t *testing.T) {
	s := scheduler.NewScheduler(1)
	s.Run()
	s.Stop()
	s.Stop()

	err := s.Schedule(scheduler.Task{Name: "late", Execute: func() error { return nil }})
	assert.ErrorIs(t, err, scheduler.ErrStopped)
}
