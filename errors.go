package redikit

import "fmt"

// WriteOp identifies which backend write a WriteError came from.
type WriteOp string

const (
	OpSet    WriteOp = "set"
	OpSetAdd WriteOp = "sadd"
	OpExpire WriteOp = "expire"
)

// WriteError reports a write the backend acknowledged at the transport level
// but did not take effect: a SET that was not acked, an SADD that added
// nothing, an EXPIRE that found no key. The facade never retries these.
type WriteError struct {
	Key string
	Op  WriteOp
}

func (e *WriteError) Error() string {
	switch e.Op {
	case OpSetAdd:
		return "Failed to add value to set: " + e.Key
	case OpExpire:
		return "Failed to set TTL for key: " + e.Key
	default:
		return "Failed to save key: " + e.Key
	}
}

// ConversionError reports a stored or delivered value that could not be
// structurally converted into the caller's target shape. Key holds the key
// or channel the value came from.
type ConversionError struct {
	Key string
	Err error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("redikit: convert value at %q: %v", e.Key, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }
