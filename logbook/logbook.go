// Package logbook appends claim outcomes to durable result files.
package logbook

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Book writes one line per outcome to a success and an error stream. The
// files are append-only and never read back by the program; they exist so
// an operator can see what happened across runs.
type Book struct {
	success io.Writer
	failure io.Writer

	closers []io.Closer
	now     func() time.Time
}

// Open opens (creating if needed) the success and error log files in
// append mode.
func Open(successPath, errorPath string) (*Book, error) {
	success, err := os.OpenFile(successPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening success log %s: %w", successPath, err)
	}

	failure, err := os.OpenFile(errorPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		success.Close()
		return nil, fmt.Errorf("opening error log %s: %w", errorPath, err)
	}

	return &Book{
		success: success,
		failure: failure,
		closers: []io.Closer{success, failure},
		now:     time.Now,
	}, nil
}

// NewWithWriters builds a Book over arbitrary writers, for tests.
func NewWithWriters(success, failure io.Writer, now func() time.Time) *Book {
	if now == nil {
		now = time.Now
	}
	return &Book{success: success, failure: failure, now: now}
}

// Success records a confirmed claim: timestamp, wallet position, address,
// and the confirming transaction hash.
func (b *Book) Success(index, total int, address, txHash string) error {
	_, err := fmt.Fprintf(b.success, "%s | wallet %d/%d | %s | tx %s\n",
		b.now().Format(time.RFC3339), index, total, address, txHash)
	return err
}

// Skipped records a wallet whose reward was already claimed.
func (b *Book) Skipped(index, total int, address string) error {
	_, err := fmt.Fprintf(b.success, "%s | wallet %d/%d | %s | already claimed\n",
		b.now().Format(time.RFC3339), index, total, address)
	return err
}

// Failure records a wallet whose retries were exhausted.
func (b *Book) Failure(index, total int, claimErr error, retries int) error {
	_, err := fmt.Fprintf(b.failure, "%s | wallet %d/%d | %v | retries %d\n",
		b.now().Format(time.RFC3339), index, total, claimErr, retries)
	return err
}

// Close closes any underlying files.
func (b *Book) Close() error {
	var firstErr error
	for _, c := range b.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
