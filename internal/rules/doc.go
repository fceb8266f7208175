// Package rules holds the automation rule catalog and the engine that
// evaluates rules against customer state.
//
// A rule couples one trigger with a condition chain and an ordered action
// list. The engine derives each customer's state (journey, health score,
// persona), filters it through the conditions, and executes actions for
// every customer that passes. One customer's failure never aborts the
// rest of a batch.
//
// Condition fields are dotted paths resolved against the derived state
// map, for example:
//
//	customer.age
//	customer.preferences.sms
//	journey.current_stage
//	journey.days_since_activity
//	health_score
//	persona.type
package rules
