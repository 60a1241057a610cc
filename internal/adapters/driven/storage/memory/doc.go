// Package memory provides in-memory implementations of driven port interfaces.
//
// These are used by tests and by the CLI's --ephemeral mode. They keep live
// objects directly, so a stored handle is returned exactly as it was stored.
package memory
