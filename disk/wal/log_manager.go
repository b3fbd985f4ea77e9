// Package wal describes the log manager collaborator that the storage core
// retains a handle to but never calls into. Real write-ahead logging lives
// outside this module's scope; the buffer pool keeps the reference solely so
// a future WAL implementation can be wired in without touching buffer pool
// call sites.
package wal

import "pagestore/disk/pages"

// LogRecord is a placeholder payload; the core never constructs a real one.
type LogRecord interface{}

type LogManager interface {
	// AppendLog records lr and returns the LSN assigned to it.
	AppendLog(lr LogRecord) pages.LSN

	// GetFlushedLSN returns the highest LSN known to be durable on disk.
	GetFlushedLSN() pages.LSN

	// Flush forces any buffered log records to disk.
	Flush() error
}

var NoopLM LogManager = &noopLM{}

type noopLM struct{}

func (n *noopLM) AppendLog(LogRecord) pages.LSN { return pages.ZeroLSN }
func (n *noopLM) GetFlushedLSN() pages.LSN      { return pages.ZeroLSN }
func (n *noopLM) Flush() error                  { return nil }
