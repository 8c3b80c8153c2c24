package mq

import (
	"context"
	"time"

	"github.com/allegro/bigcache/v3"
)

// Deduplicator 有界的"最近已见"事件集合。
// at-least-once 投递下重复消息是常态，已见过的 event_id 直接确认并跳过。
// 窗口过期的条目会被淘汰，过期后的重复依赖业务效果本身的幂等。
type Deduplicator struct {
	cache *bigcache.BigCache
}

// NewDeduplicator 创建去重器。window 为记忆窗口，maxMemoryMB 为内存上限。
func NewDeduplicator(window time.Duration, maxMemoryMB int) (*Deduplicator, error) {
	cfg := bigcache.DefaultConfig(window)
	cfg.CleanWindow = time.Minute
	cfg.HardMaxCacheSize = maxMemoryMB

	cache, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return &Deduplicator{cache: cache}, nil
}

var seen = []byte{1}

// Seen 判断 eventID 是否在记忆窗口内出现过
func (d *Deduplicator) Seen(eventID string) bool {
	_, err := d.cache.Get(eventID)
	return err == nil
}

// Mark 登记 eventID。在业务效果成功落地后调用，效果失败的消息不登记，
// 以便重投后再次尝试。
func (d *Deduplicator) Mark(eventID string) {
	_ = d.cache.Set(eventID, seen)
}

// Close 释放底层缓存
func (d *Deduplicator) Close() error {
	return d.cache.Close()
}
