package pipeline

import (
	"github.com/cyreio/cyre-go/internal/registry"
)

// Compile builds the ordered stage list for cfg per spec §4.G's fixed
// precedence. Recuperation (spec §4.H stage #1) is deliberately not a
// compiled stage: it is identical to the dispatcher's own breathing
// admission check (spec §4.I step 2), so the dispatcher performs it
// once, ahead of HasFastPath, instead of duplicating it here.
//
// At most one of throttle, debounce, and buffer becomes a stage.
// registry.Validate blocks throttle+debounce, but a buffer combined
// with throttle or debounce is accepted; when more than one is set,
// throttle wins over debounce, debounce wins over buffer, and the
// others are ignored.
func Compile(cfg registry.Config, deps Deps) *Compiled {
	var stages []Named

	if cfg.Repeat != nil {
		stages = append(stages, Named{"repeat-zero", repeatZeroStage()})
	}

	switch {
	case cfg.Throttle > 0:
		stages = append(stages, Named{"throttle", throttleStage(cfg.Throttle, deps.Clock, deps.sink())})
	case cfg.Debounce > 0:
		stages = append(stages, Named{"debounce", debounceStage(cfg.Debounce, cfg.MaxWait, deps)})
	case cfg.Buffer != nil:
		stages = append(stages, Named{"buffer", bufferStage(cfg.Buffer.Window, cfg.Buffer.Strategy, deps)})
	}

	if cfg.Schema != nil {
		stages = append(stages, Named{"schema", schemaStage(cfg.Schema)})
	}
	if cfg.Condition != nil {
		stages = append(stages, Named{"condition", conditionStage(cfg.Condition)})
	}
	if cfg.Selector != nil {
		stages = append(stages, Named{"selector", selectorStage(cfg.Selector)})
	}
	if cfg.Transform != nil {
		stages = append(stages, Named{"transform", transformStage(cfg.Transform)})
	}
	if cfg.DetectChanges {
		stages = append(stages, Named{"change-detection", changeDetectionStage(deps.PayloadStore)})
	}

	return &Compiled{
		HasFastPath: len(stages) == 0,
		Stages:      stages,
	}
}
