package singleinstance

// This file defines the API for single-instance ownership and remote capture triggers.

import (
	"context"
)

// Server owns the TCP endpoint and answers trigger requests.
type Server interface {
	// Start begins listening on the first port of the configured range and accepting client requests.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted connection as a Conn, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn represents one client connection and exposes request + response API.
type Conn interface {
	// Request returns the parsed client request.
	Request() Request
	// RespondSuccess reports that the triggered session copied a selection.
	RespondSuccess() error
	// RespondError sends an error with human-readable message.
	RespondError(msg string) error
	// Close closes the underlying connection.
	Close() error
}

// Request represents a single client request.
type Request struct {
	Command string
}

// Client attempts to delegate a capture trigger to a resident server.
type Client interface {
	// TryTrigger scans the configured TCP range, performs handshake, and asks the
	// resident to start a capture session. It blocks until that session ends.
	// If no resident is found, returns delegated=false, err=nil.
	TryTrigger(ctx context.Context) (delegated bool, err error)
}

// NewServer returns TCP implementation.
func NewServer() Server { return newTcpServer() }

// NewClient returns TCP implementation.
func NewClient() Client { return newTcpClient() }
