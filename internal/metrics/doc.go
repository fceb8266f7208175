// Package metrics accumulates per-campaign counters for reporting.
// Tracking starts with an explicit call; counters are updated by
// single-field increments and never deleted.
package metrics
