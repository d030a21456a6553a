package ai

import (
	"context"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator pings providers before the settings commands save them.
type ConfigValidator struct {
	ctx context.Context
}

// NewConfigValidator creates a validator whose pings are bounded by
// DefaultPingTimeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{ctx: context.Background()}
}

// WithContext makes pings stop when ctx is cancelled, for example on Ctrl+C.
func (v *ConfigValidator) WithContext(ctx context.Context) *ConfigValidator {
	return &ConfigValidator{ctx: ctx}
}

// ValidateEmbedding builds the embedding service and pings it.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(config)
	if err != nil || svc == nil {
		return err
	}
	return check(v.ctx, svc)
}

// ValidateLLM builds the LLM service and pings it.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	svc, err := CreateLLMService(config)
	if err != nil || svc == nil {
		return err
	}
	return check(v.ctx, svc)
}

func check(ctx context.Context, svc pingable) error {
	if err := ping(ctx, svc); err != nil {
		return err
	}
	return svc.Close()
}
