// Package server holds the HTTP server configuration.
//
// The main application entry point starts the server; this package only
// defines the settings it reads: listen port, API key and request body limit.
package server
