//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/turn-party/internal/game/rule"
	"github.com/palemoky/turn-party/internal/storage"
)

// MockLeaderboard 排行榜 mock
type MockLeaderboard struct {
	mock.Mock
}

func (m *MockLeaderboard) Stats(ctx context.Context, playerID string) (*storage.PlayerStats, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.PlayerStats), args.Error(1)
}

func (m *MockLeaderboard) Top(ctx context.Context, gameType rule.GameType, limit int) ([]storage.LeaderboardEntry, error) {
	args := m.Called(ctx, gameType, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.LeaderboardEntry), args.Error(1)
}

func (m *MockLeaderboard) Rank(ctx context.Context, gameType rule.GameType, playerID string) (int64, error) {
	args := m.Called(ctx, gameType, playerID)
	return args.Get(0).(int64), args.Error(1)
}
