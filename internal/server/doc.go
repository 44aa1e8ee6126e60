// Package server exposes the catalog, audit creation, and audit read-back over
// HTTP with gin, and pushes creation outcomes to websocket subscribers.
//
// Audit creation goes through a per-request wizard controller so that HTTP
// clients get the same step gating, template scoping, and item membership
// checks as the interactive console.
package server
