// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package eip712

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	"github.com/obolnetwork/starsign/app/errors"
	"github.com/obolnetwork/starsign/app/z"
)

// domainType is the reserved name of the domain struct type.
const domainType = "EIP712Domain"

// Field is a named member of a struct type.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Types maps struct type names to their ordered fields.
type Types map[string][]Field

// Validate returns an ErrSchema error if any field references an undefined type,
// an invalid primitive or an invalid array suffix, or if the struct types are recursive.
func (t Types) Validate() error {
	for _, name := range sortedNames(t) {
		if name == "" {
			return errors.Wrap(ErrSchema, "empty type name")
		}

		seen := make(map[string]bool)
		for _, field := range t[name] {
			if field.Name == "" {
				return errors.Wrap(ErrSchema, "empty field name", z.Str("type", name))
			}
			if seen[field.Name] {
				return errors.Wrap(ErrSchema, "duplicate field name", z.Str("type", name), z.Str("field", field.Name))
			}
			seen[field.Name] = true

			base, err := baseType(field.Type)
			if err != nil {
				return err
			}

			if _, ok := t[base]; ok {
				continue
			}

			if !isPrimitive(base) {
				return errors.Wrap(ErrSchema, "undefined type", z.Str("type", base), z.Str("field", field.Name))
			}
		}
	}

	for _, name := range sortedNames(t) {
		if err := t.checkCycles(name, make(map[string]bool)); err != nil {
			return err
		}
	}

	return nil
}

// checkCycles returns an error if the type references itself directly or via dependencies.
func (t Types) checkCycles(name string, path map[string]bool) error {
	if path[name] {
		return errors.Wrap(ErrSchema, "recursive type", z.Str("type", name))
	}

	path[name] = true
	defer delete(path, name)

	for _, field := range t[name] {
		base, err := baseType(field.Type)
		if err != nil {
			return err
		}
		if _, ok := t[base]; !ok {
			continue
		}
		if err := t.checkCycles(base, path); err != nil {
			return err
		}
	}

	return nil
}

// EncodeType returns the canonical type string of the named struct type:
// the primary type followed by all transitively referenced struct types sorted by name.
// For example `Mail(Person from,Person to,string contents)Person(string name,address wallet)`.
func (t Types) EncodeType(primary string) (string, error) {
	if _, ok := t[primary]; !ok {
		return "", errors.Wrap(ErrSchema, "undefined type", z.Str("type", primary))
	}

	if err := t.checkCycles(primary, make(map[string]bool)); err != nil {
		return "", err
	}

	deps := make(map[string]bool)
	if err := t.dependencies(primary, deps); err != nil {
		return "", err
	}
	delete(deps, primary)

	var names []string
	for dep := range deps {
		names = append(names, dep)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	for _, name := range append([]string{primary}, names...) {
		_, _ = buf.WriteString(name)
		_, _ = buf.WriteString("(")
		for i, field := range t[name] {
			if i != 0 {
				_, _ = buf.WriteString(",")
			}
			_, _ = buf.WriteString(field.Type)
			_, _ = buf.WriteString(" ")
			_, _ = buf.WriteString(field.Name)
		}
		_, _ = buf.WriteString(")")
	}

	return buf.String(), nil
}

// TypeHash returns the keccak256 hash of the canonical type string.
func (t Types) TypeHash(primary string) ([32]byte, error) {
	enc, err := t.EncodeType(primary)
	if err != nil {
		return [32]byte{}, err
	}

	return keccakHash([]byte(enc)), nil
}

// dependencies adds the name and all struct types it references to deps.
func (t Types) dependencies(name string, deps map[string]bool) error {
	if deps[name] {
		return nil
	}

	fields, ok := t[name]
	if !ok {
		if isPrimitive(name) {
			return nil
		}

		return errors.Wrap(ErrSchema, "undefined type", z.Str("type", name))
	}
	deps[name] = true

	for _, field := range fields {
		base, err := baseType(field.Type)
		if err != nil {
			return err
		}
		if err := t.dependencies(base, deps); err != nil {
			return err
		}
	}

	return nil
}

func sortedNames(t Types) []string {
	var names []string
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// baseType strips all array suffixes, so `Caveat[]` and `uint16[2][]` return `Caveat` and `uint16`.
func baseType(typ string) (string, error) {
	for strings.HasSuffix(typ, "]") {
		elem, _, err := splitArray(typ)
		if err != nil {
			return "", err
		}
		typ = elem
	}

	if typ == "" {
		return "", errors.Wrap(ErrSchema, "empty type")
	}

	return typ, nil
}

// splitArray splits the outermost array suffix off an array type, returning the element type
// and the fixed length or -1 for dynamic arrays.
func splitArray(typ string) (string, int, error) {
	open := strings.LastIndex(typ, "[")
	if open <= 0 || !strings.HasSuffix(typ, "]") {
		return "", 0, errors.Wrap(ErrSchema, "invalid array type", z.Str("type", typ))
	}

	size := typ[open+1 : len(typ)-1]
	if size == "" {
		return typ[:open], -1, nil
	}

	n, err := strconv.Atoi(size)
	if err != nil || n <= 0 || strconv.Itoa(n) != size {
		return "", 0, errors.Wrap(ErrSchema, "invalid array length", z.Str("type", typ))
	}

	return typ[:open], n, nil
}

// isPrimitive returns true if the type is an atomic or dynamic EIP-712 type.
func isPrimitive(typ string) bool {
	switch typ {
	case "address", "bool", "bytes", "string":
		return true
	}

	if _, ok := uintBits(typ); ok {
		return true
	}

	_, ok := fixedBytesLen(typ)

	return ok
}

// uintBits returns the bit width of a uintN type, N must be a multiple of 8 from 8 to 256.
func uintBits(typ string) (int, bool) {
	suffix, ok := strings.CutPrefix(typ, "uint")
	if !ok {
		return 0, false
	}

	n, err := strconv.Atoi(suffix)
	if err != nil || strconv.Itoa(n) != suffix || n < 8 || n > 256 || n%8 != 0 {
		return 0, false
	}

	return n, true
}

// fixedBytesLen returns the length of a bytesN type, N must be from 1 to 32.
func fixedBytesLen(typ string) (int, bool) {
	suffix, ok := strings.CutPrefix(typ, "bytes")
	if !ok || suffix == "" {
		return 0, false
	}

	n, err := strconv.Atoi(suffix)
	if err != nil || strconv.Itoa(n) != suffix || n < 1 || n > 32 {
		return 0, false
	}

	return n, true
}
