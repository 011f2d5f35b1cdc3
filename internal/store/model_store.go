package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jstittsworth/showdown-optimizer/internal/models"
	"github.com/jstittsworth/showdown-optimizer/internal/validation"
)

const (
	modelKeyPrefix = "showdown:model:"
	modelIndexKey  = "showdown:models"
)

func modelKey(id string) string {
	return modelKeyPrefix + id
}

// GetModel returns the saved model, or nil when the id is unknown.
func (s *Store) GetModel(ctx context.Context, id string) (*models.TunedModel, error) {
	data, err := s.client.Get(ctx, modelKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model %s: %w", id, err)
	}

	var model models.TunedModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model %s: %w", id, err)
	}
	return &model, nil
}

// PutModel upserts a model by id.
func (s *Store) PutModel(ctx context.Context, model models.TunedModel) error {
	if model.ID == "" {
		return fmt.Errorf("model is missing an id")
	}

	data, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("failed to marshal model %s: %w", model.ID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, modelKey(model.ID), data, 0)
	pipe.SAdd(ctx, modelIndexKey, model.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to put model %s: %w", model.ID, err)
	}
	return nil
}

// DeleteModel removes a model; deleting an unknown id is a no-op.
func (s *Store) DeleteModel(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, modelKey(id))
	pipe.SRem(ctx, modelIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete model %s: %w", id, err)
	}
	return nil
}

// ListModels returns every saved model ranked best-first: ascending
// validation MAE, newest first on ties, unvalidated models last.
func (s *Store) ListModels(ctx context.Context) ([]models.TunedModel, error) {
	ids, err := s.client.SMembers(ctx, modelIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list model ids: %w", err)
	}

	saved := make([]models.TunedModel, 0, len(ids))
	for _, id := range ids {
		model, err := s.GetModel(ctx, id)
		if err != nil {
			return nil, err
		}
		if model == nil {
			s.log.WithField("model_id", id).Warn("Indexed model missing its payload, skipping")
			continue
		}
		saved = append(saved, *model)
	}

	validation.SortByValidationMAE(saved)
	return saved, nil
}
