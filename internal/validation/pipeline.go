package validation

import (
	"github.com/JonMunkholm/statsetl/internal/stats"
)

// Check is one validation layer.
type Check func(rec *stats.RawSheetRecord, cfg Config) Result

// step pairs a layer with whether its errors stop the pipeline.
type step struct {
	layer Layer
	check Check
	gate  bool
}

// Pipeline runs the layers in order over a sheet.
type Pipeline struct {
	cfg   Config
	steps []step
}

// NewPipeline creates a pipeline with the standard layers.
func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{
		cfg: cfg,
		steps: []step{
			{layer: LayerStructure, check: CheckStructure, gate: true},
			{layer: LayerIdentification, check: CheckIdentification, gate: true},
			{layer: LayerDataType, check: CheckDataTypes},
			{layer: LayerCrossField, check: CheckCrossField},
			{layer: LayerPosition, check: CheckPositions},
			{layer: LayerBusinessRule, check: CheckBusinessRules},
		},
	}
}

// Config returns the thresholds the pipeline runs with.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Validate runs every layer over rec and returns the merged result.
// Structure and Identification errors stop the remaining layers.
func (p *Pipeline) Validate(rec *stats.RawSheetRecord) Result {
	var result Result
	for _, s := range p.steps {
		layerResult := s.check(rec, p.cfg)
		result.Merge(layerResult)
		if s.gate && !layerResult.IsValid() {
			break
		}
	}
	return result
}
