package scheduler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("volar.scheduler")

// ErrStopped is returned when scheduling on a stopped Scheduler.
var ErrStopped = errors.New("scheduler: stopped")

type Task struct {
	Name    string
	Execute func() error
}

// Scheduler runs tasks one at a time, in submission order, on a single
// background goroutine.
type Scheduler struct {
	mu        sync.Mutex
	stopped   bool
	taskQueue chan Task
	wg        sync.WaitGroup
}

// NewScheduler creates a new Scheduler with the specified queue size
func NewScheduler(queueSize int) *Scheduler {
	return &Scheduler{
		taskQueue: make(chan Task, queueSize),
	}
}

// Run starts the scheduler loop
func (s *Scheduler) Run() {
	go func() {
		for task := range s.taskQueue {
			s.execute(task)
			s.wg.Done()
		}
	}()
}

func (s *Scheduler) execute(task Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Task %s panicked: %v", task.Name, r)
		}
	}()
	log.Debugf("Executing %s task...", task.Name)
	if err := task.Execute(); err != nil {
		log.Warningf("Task %s failed: %v", task.Name, err)
	}
}

// Schedule queues task behind everything already submitted. It blocks
// while the queue is full.
func (s *Scheduler) Schedule(task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("%w: %s", ErrStopped, task.Name)
	}
	s.wg.Add(1)
	s.taskQueue <- task
	return nil
}

// Wait blocks until every task submitted so far has run.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Stop drains the queue and stops the scheduler. Tasks scheduled afterwards
// are rejected.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	log.Info("Stopping scheduler.")
	s.stopped = true
	close(s.taskQueue)
	s.mu.Unlock()

	s.wg.Wait()
	log.Info("Scheduler stopped.")
}
