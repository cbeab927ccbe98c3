package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/jbkun069/AnimeChatCraft/pkg/apperr"
	"github.com/jbkun069/AnimeChatCraft/pkg/character"
	"github.com/jbkun069/AnimeChatCraft/pkg/llm"
	"github.com/jbkun069/AnimeChatCraft/pkg/prompt"
	"github.com/jbkun069/AnimeChatCraft/pkg/slg"
)

const (
	msgMissingInput = "Missing message or character data."
	msgUnavailable  = "AI service unavailable. Please try again later."
)

type Service struct {
	logger   *slog.Logger
	builder  *prompt.Builder
	provider llm.Provider
}

func New(logger *slog.Logger, builder *prompt.Builder, provider llm.Provider) *Service {
	return &Service{
		logger:   logger,
		builder:  builder,
		provider: provider,
	}
}

// Reply answers message in the voice of c. Each call is independent, there is no history.
func (s *Service) Reply(ctx context.Context, c *character.Character, message string) (string, error) {
	if message == "" || c.IsEmpty() {
		return "", apperr.New(apperr.CodeValidation, msgMissingInput)
	}

	logger := s.logger
	if reqLogger, ok := slg.Lookup(ctx); ok {
		logger = reqLogger
	}
	logger = logger.With("character", c.Name)

	fullPrompt := prompt.Turn(s.builder.Build(c), message)

	start := time.Now()

	text, err := s.provider.Generate(ctx, fullPrompt)
	if err != nil {
		logger.Error("provider call failed", "err", err, "took", time.Since(start))
		return "", apperr.Wrap(apperr.CodeProvider, err, msgUnavailable)
	}

	logger.Debug("provider replied", "took", time.Since(start), "len", len(text))

	return prompt.CleanReply(text), nil
}
