// Package pipeline implements the five-stage contact collection flow:
// listing collection, profile enrichment, web-search enrichment,
// contact-page fallback enrichment, and handoff to the exporter.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/contacts-cli/internal/model"
)

// Stage is one phase of the pipeline. Stages run in order, each to
// completion over the full record set before the next begins.
type Stage interface {
	Name() string
	// Enabled reports whether the stage should run; when false, the reason
	// is logged and the stage is skipped.
	Enabled() (bool, string)
	Run(ctx context.Context, set *model.Set) error
}

// Pipeline executes an ordered list of stages over a shared record set.
type Pipeline struct {
	stages []Stage
}

// New creates a Pipeline from the given stages.
func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run executes each enabled stage in order. A stage failure is logged and
// does not stop later stages; per-record failures are handled inside each
// stage and never surface here.
func (p *Pipeline) Run(ctx context.Context, set *model.Set) {
	for _, st := range p.stages {
		log := zap.L().With(zap.String("stage", st.Name()))

		if ok, reason := st.Enabled(); !ok {
			log.Warn("pipeline: stage disabled, skipping", zap.String("reason", reason))
			continue
		}

		start := time.Now()
		err := st.Run(ctx, set)
		duration := time.Since(start)

		if err != nil {
			log.Error("pipeline: stage failed",
				zap.Duration("duration", duration),
				zap.Int("records", set.Len()),
				zap.Error(err),
			)
			continue
		}
		log.Info("pipeline: stage complete",
			zap.Duration("duration", duration),
			zap.Int("records", set.Len()),
		)
	}
}
