package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/turn-party/internal/game/session"
)

const (
	// Redis key 前缀
	sessionKeyPrefix = "session:"

	// 快照默认过期时间
	defaultSnapshotTTL = 2 * time.Hour
)

// SnapshotStore 以 JSON 保存会话快照，用于观战和事后审计
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotStore 创建快照存储，ttl <= 0 时使用默认值
func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &SnapshotStore{client: client, ttl: ttl}
}

// Save 保存快照并刷新过期时间
func (ss *SnapshotStore) Save(ctx context.Context, snap session.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("序列化会话快照失败: %w", err)
	}
	return ss.client.Set(ctx, sessionKeyPrefix+snap.SessionID, data, ss.ttl).Err()
}

// Load 读取快照，不存在时返回 nil。游戏数据反序列化为通用 map
func (ss *SnapshotStore) Load(ctx context.Context, sessionID string) (*session.Snapshot, error) {
	data, err := ss.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var snap session.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("反序列化会话快照失败: %w", err)
	}
	return &snap, nil
}

// Delete 删除快照
func (ss *SnapshotStore) Delete(ctx context.Context, sessionID string) error {
	return ss.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

// IDs 列出所有已保存的会话 ID
func (ss *SnapshotStore) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := ss.client.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(sessionKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
