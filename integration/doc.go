//go:build integration

// Package integration provides end-to-end tests for the sevenz library.
//
// Archives are verified with an independent Go reader and with the
// reference 7-Zip implementation, which runs in a container started with
// testcontainers. The container tests require Docker.
// Run with: go test -tags=integration ./integration/...
package integration
