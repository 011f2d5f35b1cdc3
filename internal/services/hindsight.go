package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/jstittsworth/showdown-optimizer/internal/models"
	"github.com/jstittsworth/showdown-optimizer/pkg/logger"
)

// HindsightService asks an LLM to propose a scoring-weight vector for one
// completed game. It is strictly an optional data source for model
// discovery: any failure here means one fewer candidate, never a failed
// cycle. Calls go through a circuit breaker and a rate limiter so a flaky
// upstream cannot stall a long discovery run.
type HindsightService struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Entry
}

// HindsightConfig wires the service from app config.
type HindsightConfig struct {
	APIKey                  string
	Model                   string
	RequestsPerMinute       int
	CircuitBreakerThreshold int
}

// NewHindsightService returns nil when no API key is configured; callers
// treat a nil service as "source unavailable".
func NewHindsightService(cfg HindsightConfig) *HindsightService {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 5
	}
	threshold := uint32(cfg.CircuitBreakerThreshold)
	if threshold == 0 {
		threshold = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "hindsight-weights",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})

	return &HindsightService{
		client:  openai.NewClient(cfg.APIKey),
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		breaker: breaker,
		log:     logger.Get().WithField("component", "hindsight"),
	}
}

// SuggestWeights returns one hindsight weight vector for the game, or an
// error the caller downgrades to a warning.
func (h *HindsightService) SuggestWeights(ctx context.Context, game models.HistoricalGame) (models.StatWeights, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter interrupted: %w", err)
	}

	raw, err := h.breaker.Execute(func() (interface{}, error) {
		return h.requestWeights(ctx, game)
	})
	if err != nil {
		h.log.WithFields(logrus.Fields{
			"game_id": game.GameID,
			"error":   err,
		}).Warn("Hindsight weight request failed")
		return nil, err
	}
	return raw.(models.StatWeights), nil
}

func (h *HindsightService) requestWeights(ctx context.Context, game models.HistoricalGame) (models.StatWeights, error) {
	resp, err := h.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: h.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You analyze completed NFL games and propose per-stat fantasy scoring weight adjustments. Respond with a single JSON object mapping stat names to numeric weights, nothing else.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(game),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}

	return parseWeights(resp.Choices[0].Message.Content)
}

func buildPrompt(game models.HistoricalGame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Game: %s\n", game.Description)
	if game.Context.BettingLine != 0 {
		fmt.Fprintf(&b, "Closing line: %.1f, total: %.1f\n", game.Context.BettingLine, game.Context.OverUnder)
	}
	b.WriteString("Final box scores:\n")
	for _, rec := range game.Players {
		fmt.Fprintf(&b, "- %s (%s, %s): %.1f fantasy points, stats %v\n",
			rec.Name, rec.Team, rec.Position, rec.ActualFantasyPoints, rec.Stats)
	}
	b.WriteString("\nPropose the stat weight vector that would best have predicted these fantasy outputs. Use keys like pass_yards, pass_tds, rush_yards, receptions, rec_yards.")
	return b.String()
}

// parseWeights tolerates a fenced code block around the JSON payload.
func parseWeights(content string) (models.StatWeights, error) {
	trimmed := strings.TrimSpace(content)
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			trimmed = trimmed[start : end+1]
		}
	}

	var parsed map[string]float64
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return nil, fmt.Errorf("unparseable weight payload: %w", err)
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("empty weight payload")
	}

	weights := make(models.StatWeights, len(parsed))
	for k, v := range parsed {
		weights[models.StatName(k)] = v
	}
	return weights, nil
}

// CollectHindsightVectors gathers suggestions for up to maxGames training
// games. The service being nil or every call failing simply yields an empty
// slice; discovery then omits the hindsight candidate.
func CollectHindsightVectors(ctx context.Context, h *HindsightService, games []models.HistoricalGame, maxGames int) []models.StatWeights {
	if h == nil || maxGames <= 0 {
		return nil
	}
	vectors := make([]models.StatWeights, 0, maxGames)
	for i := range games {
		if len(vectors) >= maxGames {
			break
		}
		if ctx.Err() != nil {
			break
		}
		w, err := h.SuggestWeights(ctx, games[i])
		if err != nil {
			continue
		}
		vectors = append(vectors, w)
	}
	return vectors
}
