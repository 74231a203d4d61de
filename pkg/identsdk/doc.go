// Package identsdk provides the wire types, error vocabulary, and a small
// HTTP client for the identity service. The server's HTTP handlers share
// these types so the SDK and the service can never drift apart.
package identsdk
