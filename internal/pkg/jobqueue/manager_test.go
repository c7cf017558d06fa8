package jobqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewManager(t *testing.T) {
	queue := NewQueue(nil, 1)

	manager1 := NewManager(queue)
	manager2 := NewManager(queue)

	assert.NotNil(t, manager1)
	assert.NotSame(t, manager1, manager2, "each NewManager call builds an independent manager")
	assert.NotNil(t, manager1.stopCh)
	assert.False(t, manager1.running)
}

func TestManager_GetQueue(t *testing.T) {
	queue := NewQueue(nil, 1)
	manager := NewManager(queue)

	assert.Same(t, queue, manager.GetQueue())
}

func TestManager_IsRunning(t *testing.T) {
	manager := NewManager(NewQueue(nil, 1))

	assert.False(t, manager.IsRunning())

	manager.mu.Lock()
	manager.running = true
	manager.mu.Unlock()

	assert.True(t, manager.IsRunning())

	manager.mu.Lock()
	manager.running = false
	manager.mu.Unlock()

	assert.False(t, manager.IsRunning())
}
