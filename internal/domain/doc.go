// Package domain contains the core data types for the customer lifecycle
// engine: customers and their journeys, behavioral personas, automation
// rules, communication templates, and campaign metrics.
//
// Types here are pure data with no I/O. Services under internal/ operate
// on them; persistence is the concern of the repository implementations.
package domain
