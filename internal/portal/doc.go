// Package portal adapts externally observed customer activity (page
// views, form submits, support requests) into engine triggers and
// persona-driven dashboard personalization.
//
// Telemetry failures are reported in the result, never raised: a broken
// tracking path must not break portal UX.
package portal
