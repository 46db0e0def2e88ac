package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeMessage(i int) Message {
	return Message{
		UserID: fmt.Sprintf("user%d", i),
		Role:   "developer",
		Text:   fmt.Sprintf("Message %d", i),
		Ts:     Now(),
	}
}

func TestContextBufferFIFOEviction(t *testing.T) {
	buf := NewContextBuffer(50)

	for i := 0; i <= 50; i++ { // 51 appends
		buf.Append(makeMessage(i))
	}

	snapshot := buf.Snapshot()
	require.Len(t, snapshot, 50)

	// Item 0 is evicted, items 1..50 remain in arrival order
	assert.Equal(t, "Message 1", snapshot[0].Text)
	assert.Equal(t, "Message 50", snapshot[49].Text)
	for i, msg := range snapshot {
		assert.Equal(t, fmt.Sprintf("Message %d", i+1), msg.Text)
	}
}

func TestContextBufferLastK(t *testing.T) {
	buf := NewContextBuffer(50)
	for i := 0; i < 15; i++ {
		buf.Append(makeMessage(i))
	}

	window := buf.LastK(10)
	require.Len(t, window, 10)
	assert.Equal(t, "Message 5", window[0].Text, "oldest of the window comes first")
	assert.Equal(t, "Message 14", window[9].Text)
}

func TestContextBufferLastKShorterThanK(t *testing.T) {
	buf := NewContextBuffer(50)
	for i := 0; i < 3; i++ {
		buf.Append(makeMessage(i))
	}

	window := buf.LastK(10)
	require.Len(t, window, 3)
	assert.Equal(t, "Message 0", window[0].Text)
	assert.Equal(t, "Message 2", window[2].Text)
}

func TestContextBufferSnapshotIsCopy(t *testing.T) {
	buf := NewContextBuffer(5)
	buf.Append(makeMessage(0))

	snapshot := buf.Snapshot()
	snapshot[0].Text = "mutated"

	assert.Equal(t, "Message 0", buf.Snapshot()[0].Text)
}

func TestContextBufferDefaultCapacity(t *testing.T) {
	buf := NewContextBuffer(0)
	for i := 0; i < DefaultBufferCapacity+10; i++ {
		buf.Append(makeMessage(i))
	}
	assert.Equal(t, DefaultBufferCapacity, buf.Len())
}
