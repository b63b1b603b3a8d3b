// Package cmd implements the command-line interface for the nbkv key-value
// store. It provides a hierarchical command structure with operations for
// running the HTTP server and working with a local store directly.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value operations (get, put, delete, batch, size, bench)
//   - serve: Commands for starting and configuring the nbkv HTTP server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See nbkv -help for a list of all commands.
package cmd
