package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/showdown-optimizer/internal/models"
	"github.com/jstittsworth/showdown-optimizer/pkg/logger"
)

const (
	gameKeyPrefix = "showdown:game:"
	gameIndexKey  = "showdown:games"
)

// Store is the redis-backed persistence layer for cached historical games
// and saved models. Writes are idempotent upsert-by-id; the redis commands
// involved provide all the atomicity the callers need.
type Store struct {
	client *redis.Client
	log    *logrus.Entry
}

// New wraps an existing redis client. The caller owns the client's
// lifecycle.
func New(client *redis.Client) *Store {
	return &Store{
		client: client,
		log:    logger.Get().WithField("component", "store"),
	}
}

func gameKey(id string) string {
	return gameKeyPrefix + id
}

// GetGame returns the cached game, or nil when the id is unknown.
func (s *Store) GetGame(ctx context.Context, id string) (*models.HistoricalGame, error) {
	data, err := s.client.Get(ctx, gameKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %s: %w", id, err)
	}

	var game models.HistoricalGame
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game %s: %w", id, err)
	}
	return &game, nil
}

// PutGame upserts a game and registers it in the enumeration index.
func (s *Store) PutGame(ctx context.Context, game models.HistoricalGame) error {
	if game.GameID == "" {
		return fmt.Errorf("game is missing an id")
	}
	if game.CachedAt.IsZero() {
		game.CachedAt = time.Now().UTC()
	}

	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to marshal game %s: %w", game.GameID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, gameKey(game.GameID), data, 0)
	pipe.SAdd(ctx, gameIndexKey, game.GameID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to put game %s: %w", game.GameID, err)
	}
	return nil
}

// CountGames returns the number of cached games.
func (s *Store) CountGames(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, gameIndexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}
	return int(n), nil
}

// Games returns every cached game, ordered by id for stable iteration.
// Entries whose payload has vanished out from under the index are skipped
// with a warning.
func (s *Store) Games(ctx context.Context) ([]models.HistoricalGame, error) {
	ids, err := s.client.SMembers(ctx, gameIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list game ids: %w", err)
	}
	sort.Strings(ids)

	games := make([]models.HistoricalGame, 0, len(ids))
	for _, id := range ids {
		game, err := s.GetGame(ctx, id)
		if err != nil {
			return nil, err
		}
		if game == nil {
			s.log.WithField("game_id", id).Warn("Indexed game missing its payload, skipping")
			continue
		}
		games = append(games, *game)
	}
	return games, nil
}
