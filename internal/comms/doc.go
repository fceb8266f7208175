// Package comms renders lifecycle message templates and dispatches them
// across email, SMS, and push channels.
//
// The dispatcher honors per-customer channel preferences, personalizes
// subject and body via Liquid templates, and appends one CommunicationLog
// entry per dispatch attempt regardless of outcome.
package comms
