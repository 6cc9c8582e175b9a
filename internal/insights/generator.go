// Package insights produces and formats the narrative that accompanies a
// ROAS result.
package insights

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/roascalc/internal/metrics"
)

// TextGenerator is an external text-generation service.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Insight is a normalized narrative plus where it came from.
type Insight struct {
	Text        string
	AIGenerated bool
}

// Generator asks the text-generation service for a narrative and substitutes
// the fallback narrative when the service is absent or fails.
type Generator struct {
	llm     TextGenerator
	timeout time.Duration
}

// NewGenerator creates a new insight generator. llm may be nil, in which
// case every insight comes from the fallback templates.
func NewGenerator(llm TextGenerator, timeout time.Duration) *Generator {
	return &Generator{llm: llm, timeout: timeout}
}

// Generate never fails: service errors are logged and replaced by the
// fallback narrative with AIGenerated set to false.
func (g *Generator) Generate(ctx context.Context, c Campaign) Insight {
	if g.llm == nil {
		log.Debug().Msg("Text generation not configured, using fallback insights")
		return Insight{Text: Normalize(Fallback(c.Ratio, c.Platform))}
	}

	text, err := g.generate(ctx, c)
	if err != nil {
		log.Warn().
			Err(err).
			Float64("roas", c.Ratio).
			Msg("Text generation failed, using fallback insights")
		return Insight{Text: Normalize(Fallback(c.Ratio, c.Platform))}
	}

	return Insight{Text: text, AIGenerated: true}
}

func (g *Generator) generate(ctx context.Context, c Campaign) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := g.llm.Generate(ctx, BuildPrompt(c))
	if err != nil {
		metrics.ObserveLLMRequest("error", time.Since(start))
		return "", err
	}

	text := Normalize(raw)
	if strings.TrimSpace(text) == "" {
		metrics.ObserveLLMRequest("empty", time.Since(start))
		return "", errors.New("text generation returned no content")
	}

	metrics.ObserveLLMRequest("ok", time.Since(start))
	log.Debug().
		Int("chars", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("Insights generated")
	return text, nil
}
