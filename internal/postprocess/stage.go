package postprocess

import (
	"context"
	"log/slog"

	"dihi/internal/logging"
	"dihi/internal/media"
	"dihi/internal/services"
	"dihi/internal/services/ffmpeg"
)

// Stage is one step of the per-item pipeline. Execute may mutate the media
// context so later stages see its outputs.
type Stage interface {
	Name() string
	Execute(ctx context.Context, item *media.Context) error
}

// Pipeline runs the stages in fixed order, aborting on the first failure.
type Pipeline struct {
	stages []Stage
	logger *slog.Logger
}

// Options carries the pipeline's external dependencies.
type Options struct {
	Runner    *ffmpeg.Runner
	Languages []string
	Logger    *slog.Logger
}

// New builds the standard pipeline.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger: logging.WithComponent(logger, "postprocess"),
		stages: []Stage{
			&thumbnailStage{runner: opts.Runner},
			&captionEmbedStage{runner: opts.Runner, languages: opts.Languages},
			&coverArtStage{runner: opts.Runner},
			&metadataStage{runner: opts.Runner},
			&derivedAudioStage{runner: opts.Runner, languages: opts.Languages},
		},
	}
}

// Run executes every stage against the item. The first stage error aborts
// the pipeline and is returned tagged with the failing stage.
func (p *Pipeline) Run(ctx context.Context, item *media.Context) error {
	for _, stage := range p.stages {
		logger := p.logger.With(logging.FieldStage, stage.Name(), logging.FieldItemID, item.ItemID)
		logger.Debug("stage starting")
		if err := stage.Execute(ctx, item); err != nil {
			logger.Error("stage failed", logging.Error(err))
			return services.Wrap(services.ErrStage, "postprocess", stage.Name(), "", err)
		}
		logger.Debug("stage complete")
	}
	return nil
}
