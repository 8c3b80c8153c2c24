package mq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduplicatorSeenAfterMark(t *testing.T) {
	d, err := NewDeduplicator(time.Minute, 8)
	require.NoError(t, err)
	defer d.Close()

	assert.False(t, d.Seen("evt-1"))

	d.Mark("evt-1")
	assert.True(t, d.Seen("evt-1"))
	assert.False(t, d.Seen("evt-2"))
}

func TestDeduplicatorSeenDoesNotMark(t *testing.T) {
	d, err := NewDeduplicator(time.Minute, 8)
	require.NoError(t, err)
	defer d.Close()

	// 查询本身不登记：效果失败的消息重投后仍会被处理
	assert.False(t, d.Seen("evt-1"))
	assert.False(t, d.Seen("evt-1"))
}
