package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/turn-party/internal/clock"
	"github.com/palemoky/turn-party/internal/game/rule"
)

const (
	// Redis key
	playerStatsKey   = "player:stats:"
	leaderboardKey   = "leaderboard:"
	totalBoard       = "total"
	dailyLeaderboard = "leaderboard:daily:"
)

// 积分规则
const (
	WinBonus = 10 // 多人局第一名

	// 连胜加成
	StreakBonus3  = 5
	StreakBonus5  = 10
	StreakBonus10 = 20
)

// PlayerStats 玩家统计数据，保存为 Redis hash
type PlayerStats struct {
	PlayerID string `redis:"player_id" json:"player_id"`
	Name     string `redis:"name" json:"name"`

	Games int `redis:"games" json:"games"`
	Wins  int `redis:"wins" json:"wins"`

	Points    int `redis:"points" json:"points"`         // 排行榜积分
	BestScore int `redis:"best_score" json:"best_score"` // 单局最高分

	CurrentStreak int `redis:"current_streak" json:"current_streak"` // 正数为连胜，负数为连败
	MaxWinStreak  int `redis:"max_win_streak" json:"max_win_streak"`

	LastPlayedAt int64 `redis:"last_played_at" json:"last_played_at"`
	CreatedAt    int64 `redis:"created_at" json:"created_at"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"player_id"`
	Name     string  `json:"name"`
	Points   int     `json:"points"`
	Wins     int     `json:"wins"`
	WinRate  float64 `json:"win_rate"`
}

// Leaderboard 排行榜：每个游戏一个有序集合，另有总榜和日榜
type Leaderboard struct {
	redis *redis.Client
	clock clock.Clock
}

// NewLeaderboard 创建排行榜
func NewLeaderboard(client *redis.Client, clk clock.Clock) *Leaderboard {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Leaderboard{redis: client, clock: clk}
}

// Stats 获取玩家统计，不存在时返回 nil
func (lb *Leaderboard) Stats(ctx context.Context, playerID string) (*PlayerStats, error) {
	res := lb.redis.HGetAll(ctx, playerStatsKey+playerID)
	fields, err := res.Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	var stats PlayerStats
	if err := res.Scan(&stats); err != nil {
		return nil, fmt.Errorf("解析玩家统计失败: %w", err)
	}
	return &stats, nil
}

// updateWinLossStats 更新胜负统计和连胜/连败
func updateWinLossStats(stats *PlayerStats, isWinner bool) {
	if isWinner {
		stats.Wins++
		stats.CurrentStreak = max(1, stats.CurrentStreak+1)
	} else {
		stats.CurrentStreak = min(-1, stats.CurrentStreak-1)
	}

	if stats.CurrentStreak > stats.MaxWinStreak {
		stats.MaxWinStreak = stats.CurrentStreak
	}
}

// calculateStreakBonus 计算连胜加成
func calculateStreakBonus(streak int) int {
	switch {
	case streak >= 10:
		return StreakBonus10
	case streak >= 5:
		return StreakBonus5
	case streak >= 3:
		return StreakBonus3
	default:
		return 0
	}
}

// RecordResult 记录一局的最终排名。单人游戏只累计分数，不计胜负
func (lb *Leaderboard) RecordResult(ctx context.Context, gameType rule.GameType, ranking []rule.Standing) error {
	multi := len(ranking) > 1
	for _, st := range ranking {
		if err := lb.recordPlayer(ctx, gameType, st, multi); err != nil {
			return fmt.Errorf("记录玩家 %s 战绩失败: %w", st.PlayerID, err)
		}
	}
	return nil
}

func (lb *Leaderboard) recordPlayer(ctx context.Context, gameType rule.GameType, st rule.Standing, multi bool) error {
	now := lb.clock.Now()
	stats, err := lb.Stats(ctx, st.PlayerID)
	if err != nil {
		return err
	}
	if stats == nil {
		stats = &PlayerStats{PlayerID: st.PlayerID, CreatedAt: now.Unix()}
	}

	stats.Name = st.Name
	stats.Games++
	stats.LastPlayedAt = now.Unix()
	stats.BestScore = max(stats.BestScore, st.Score)

	gained := max(0, st.Score)
	if multi {
		winner := st.Rank == 1
		updateWinLossStats(stats, winner)
		if winner {
			gained += WinBonus + calculateStreakBonus(stats.CurrentStreak)
		}
	}
	stats.Points += gained

	dailyKey := dailyLeaderboard + string(gameType) + ":" + now.Format("2006-01-02")
	_, err = lb.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, playerStatsKey+st.PlayerID, stats)
		pipe.ZIncrBy(ctx, leaderboardKey+string(gameType), float64(gained), st.PlayerID)
		pipe.ZIncrBy(ctx, leaderboardKey+totalBoard, float64(gained), st.PlayerID)
		pipe.ZIncrBy(ctx, dailyKey, float64(gained), st.PlayerID)
		// 日榜保留 2 天
		pipe.Expire(ctx, dailyKey, 48*time.Hour)
		return nil
	})
	return err
}

// Top 获取排行榜前 limit 名，gameType 为空时返回总榜
func (lb *Leaderboard) Top(ctx context.Context, gameType rule.GameType, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	results, err := lb.redis.ZRevRangeWithScores(ctx, boardKey(gameType), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for i, result := range results {
		playerID, _ := result.Member.(string)
		entry := LeaderboardEntry{
			Rank:     i + 1,
			PlayerID: playerID,
			Points:   int(result.Score),
		}

		stats, err := lb.Stats(ctx, playerID)
		if err != nil {
			return nil, err
		}
		if stats != nil {
			entry.Name = stats.Name
			entry.Wins = stats.Wins
			if stats.Games > 0 {
				entry.WinRate = float64(stats.Wins) / float64(stats.Games) * 100
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Rank 获取玩家排名，未上榜返回 -1
func (lb *Leaderboard) Rank(ctx context.Context, gameType rule.GameType, playerID string) (int64, error) {
	rank, err := lb.redis.ZRevRank(ctx, boardKey(gameType), playerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil // Redis 排名从 0 开始
}

func boardKey(gameType rule.GameType) string {
	if gameType == "" {
		return leaderboardKey + totalBoard
	}
	return leaderboardKey + string(gameType)
}
