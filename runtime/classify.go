package runtime

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
)

// Normalized transient error codes.
const (
	CodeConnReset      = "ECONNRESET"
	CodeTimeout        = "ETIMEDOUT"
	CodeConnRefused    = "ECONNREFUSED"
	CodeConnectionLost = "PROTOCOL_CONNECTION_LOST"
)

var transientCodes = map[string]struct{}{
	CodeConnReset:      {},
	CodeTimeout:        {},
	CodeConnRefused:    {},
	CodeConnectionLost: {},
}

// IsTransientCode reports whether code is one of the retryable codes.
func IsTransientCode(code string) bool {
	_, ok := transientCodes[code]
	return ok
}

var messageSignatures = []struct {
	fragment string
	code     string
}{
	{"econnreset", CodeConnReset},
	{"connection reset", CodeConnReset},
	{"econnrefused", CodeConnRefused},
	{"connection refused", CodeConnRefused},
	{"etimedout", CodeTimeout},
	{"i/o timeout", CodeTimeout},
	{"timed out", CodeTimeout},
	{"protocol_connection_lost", CodeConnectionLost},
	{"connection lost", CodeConnectionLost},
	{"broken pipe", CodeConnectionLost},
	{"bad connection", CodeConnectionLost},
	{"server closed the connection", CodeConnectionLost},
	{"unexpected eof", CodeConnectionLost},
}

// NormalizeError maps err onto the transient code set using only standard
// library signals and the error text. It returns "" for errors that must not
// be retried, including context cancellation and deadlines.
func NormalizeError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ""
	}

	switch {
	case errors.Is(err, syscall.ECONNRESET):
		return CodeConnReset
	case errors.Is(err, syscall.ECONNREFUSED):
		return CodeConnRefused
	case errors.Is(err, syscall.ETIMEDOUT):
		return CodeTimeout
	case errors.Is(err, syscall.EPIPE), errors.Is(err, driver.ErrBadConn),
		errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed):
		return CodeConnectionLost
	}

	var coded interface{ Code() string }
	if errors.As(err, &coded) && IsTransientCode(coded.Code()) {
		return coded.Code()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeTimeout
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range messageSignatures {
		if strings.Contains(msg, sig.fragment) {
			return sig.code
		}
	}
	return ""
}

// classify returns the transient code of err, asking the pool first.
func classify(p Pool, err error) string {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ""
	}
	if n, ok := p.(ErrorNormalizer); ok {
		if code := n.NormalizeError(err); IsTransientCode(code) {
			return code
		}
	}
	return NormalizeError(err)
}
