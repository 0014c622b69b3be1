package storage

import "errors"

// ErrClosed is returned by the in-memory store's Insert after Close; its
// read methods keep answering.
var ErrClosed = errors.New("storage: store is closed")
