// Package http holds the chi handlers. Handlers decode requests, call the
// services and render responses; no business logic lives here.
package http
