// timer/timer.go
package timer

import (
	"container/heap"
	"sync"
	"time"
)

// Task 一个待执行的定时任务
type Task struct {
	ID       int64
	Execute  time.Time
	Interval time.Duration // >0 表示周期任务
	Callback func()
	index    int
}

type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	return q[i].Execute.Before(q[j].Execute)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x interface{}) {
	task := x.(*Task)
	task.index = len(*q)
	*q = append(*q, task)
}

func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	task.index = -1
	*q = old[:n-1]
	return task
}

// Manager schedules cancellable delayed callbacks on a single tick loop.
// Callbacks run on their own goroutine and must not assume ordering.
type Manager struct {
	queue    taskQueue
	nextID   int64
	tick     time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	mutex    sync.Mutex
}

// NewManager creates and starts a timer manager.
func NewManager() *Manager {
	m := &Manager{
		queue:    make(taskQueue, 0),
		nextID:   1,
		tick:     50 * time.Millisecond,
		stopChan: make(chan struct{}),
	}
	heap.Init(&m.queue)
	go m.loop()
	return m
}

// Add schedules a callback after delay. A positive interval reschedules the
// task after every run. The returned id cancels the task via Remove.
func (m *Manager) Add(delay time.Duration, interval time.Duration, callback func()) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task := &Task{
		ID:       m.nextID,
		Execute:  time.Now().Add(delay),
		Interval: interval,
		Callback: callback,
	}
	m.nextID++

	heap.Push(&m.queue, task)
	return task.ID
}

// Remove cancels a pending task. Removing an already-fired or unknown id is
// a no-op.
func (m *Manager) Remove(taskID int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, task := range m.queue {
		if task.ID == taskID {
			heap.Remove(&m.queue, i)
			return
		}
	}
}

// Pending returns the number of scheduled tasks.
func (m *Manager) Pending() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.queue.Len()
}

// Stop shuts the tick loop down. Pending tasks never fire after Stop.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
}

func (m *Manager) loop() {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, task := range m.takeDue(time.Now()) {
				go task.Callback()
			}
		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) takeDue(now time.Time) []*Task {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var due []*Task
	for m.queue.Len() > 0 {
		task := m.queue[0]
		if task.Execute.After(now) {
			break
		}
		heap.Pop(&m.queue)
		due = append(due, task)

		if task.Interval > 0 {
			task.Execute = now.Add(task.Interval)
			heap.Push(&m.queue, task)
		}
	}
	return due
}
