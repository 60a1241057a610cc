// Package gdrive implements the remote storage backend on Google Drive.
//
// The storage root is a folder in the user's "My Drive" (MediaTracker by
// default). Relative paths map onto nested folders under it. Access uses the
// drive.file scope, so the application only sees files it created.
//
// Authorisation is an OAuth 2.0 authorisation-code flow with PKCE. The
// resulting tokens are persisted through a driven.TokenStore and refreshed
// transparently; refreshed tokens are written back to the store.
//
// All API calls pass through a token-bucket throttle. Rate-limit responses
// pause later calls, for Retry-After or an exponential backoff.
package gdrive
