// Package server exposes the scan engine over HTTP.
//
// The API is a small JSON surface: submit a target, poll the scan by ID
// while the pipeline progresses, and list scan history. All state lives
// in the store; the server itself is stateless between requests.
package server
