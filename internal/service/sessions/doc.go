// Package sessions provides the maintenance entry points for recorded
// build sessions: listing them and rolling one back manually.
package sessions
