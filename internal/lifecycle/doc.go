// Package lifecycle derives customer journeys and engagement health
// scores, and records explicit lifecycle-stage overrides.
//
// The journey's current stage is a derived view recomputed from activity
// recency on every read; only explicit overrides written through
// UpdateStage persist, via an optional StageWriter hook.
package lifecycle
