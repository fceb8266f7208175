// Package api exposes the lifecycle platform over HTTP: persona and
// journey reads, stage overrides, rule management, automation triggers,
// communication dispatch, campaign metrics, and the portal surface.
package api
