// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

// Package z provides structured logging fields by wrapping zap.Field.
// The same fields are attached to structured errors, see app/errors.
package z

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// Field wraps one or more zap fields.
type Field func(add func(zap.Field))

// structErr is implemented by app/errors structured errors.
type structErr interface {
	Fields() []Field
	Stack() zap.Field
}

// Fields returns the fields of a structured error or an empty slice.
func Fields(err error) []Field {
	serr, ok := err.(structErr) //nolint:errorlint // Only direct structured errors carry fields.
	if !ok {
		return []Field{}
	}

	return serr.Fields()
}

// ContainsField returns true if the structured error contains the field.
func ContainsField(err error, field Field) bool {
	target := first(field)

	return slices.ContainsFunc(Fields(err), func(f Field) bool {
		return target.Equals(first(f))
	})
}

// first returns the first zap field added by f.
func first(f Field) zap.Field {
	var resp zap.Field
	f(func(zf zap.Field) {
		if resp.Key == "" {
			resp = zf
		}
	})

	return resp
}

// Err returns a zap error field. Structured errors also add their stack trace and fields.
// Only needed when logging errors at levels other than Error/Warn which have built-in error support.
func Err(err error) Field {
	serr, ok := err.(structErr) //nolint:errorlint
	if !ok {
		return func(add func(zap.Field)) {
			add(zap.Error(err))
		}
	}

	return func(add func(zap.Field)) {
		add(zap.Error(err))
		add(serr.Stack())
		for _, field := range serr.Fields() {
			field(add)
		}
	}
}

// Str returns a wrapped zap string field.
func Str(key, val string) Field {
	return func(add func(zap.Field)) {
		add(zap.String(key, val))
	}
}

// Bool returns a wrapped zap boolean field.
func Bool(key string, val bool) Field {
	return func(add func(zap.Field)) {
		add(zap.Bool(key, val))
	}
}

// Int returns a wrapped zap int field.
func Int(key string, val int) Field {
	return func(add func(zap.Field)) {
		add(zap.Int(key, val))
	}
}

// I64 returns a wrapped zap int64 field.
func I64(key string, val int64) Field {
	return func(add func(zap.Field)) {
		add(zap.Int64(key, val))
	}
}

// U64 returns a wrapped zap uint64 field.
func U64(key string, val uint64) Field {
	return func(add func(zap.Field)) {
		add(zap.Uint64(key, val))
	}
}

// Hex returns a 0x-prefixed hex string field.
func Hex(key string, val []byte) Field {
	return func(add func(zap.Field)) {
		add(zap.String(key, fmt.Sprintf("%#x", val)))
	}
}

// Addr returns a checksummed hex address field.
func Addr(key string, val interface{ Hex() string }) Field {
	return func(add func(zap.Field)) {
		add(zap.String(key, val.Hex()))
	}
}

// Any returns a string field with the fmt.Sprint version of val.
// zap.Any is avoided since the logfmt encoder doesn't support it.
func Any(key string, val any) Field {
	return func(add func(zap.Field)) {
		add(zap.String(key, fmt.Sprint(val)))
	}
}

// Skip is a noop field similar to zap.Skip.
var Skip Field = func(func(zap.Field)) {}
