// Package lineguard provides in-process access to a lineguard guardian
// for Go programs that embed the wipe capability rather than shelling
// out to the CLI. A Client opens an initialized config directory, acts
// as one fixed identity, and exposes the guardian's risk surface: wipe,
// dry-run check, and read-only listing. Owner-gated configuration is
// deliberately absent from this surface.
package lineguard
