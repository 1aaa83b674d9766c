// Package env implements the variable and function environment for the
// AWK tree-walking interpreter: global and local scalar storage, the
// associative array table, and the special-variable surface (NR, NF, FS,
// and the rest) that every record-processing rule reads and writes.
//
// AWK defers the scalar/array decision on a variable until its first use:
// a parameter that is never touched in a function body can be passed an
// array from one caller and a scalar from another. To support that, and
// AWK's pass-arrays-by-reference / pass-scalars-by-value calling
// convention, every variable slot -- global or local -- is a *Cell, a
// mutable reference cell shared between a caller's argument and a
// callee's parameter whenever an array (or an as-yet-untyped variable)
// is passed.
package env

import (
	"fmt"

	"github.com/kolkov/gawk-core/internal/types"
)

// Array is an AWK associative array: string keys to scalar values.
type Array map[string]types.Value

// cellKind tracks what a Cell currently holds. A fresh Cell starts
// unset and commits to scalar or array on first use, the same way gawk
// infers a variable's type from how the program actually uses it.
type cellKind uint8

const (
	cellUnset cellKind = iota
	cellScalar
	cellArray
)

// Cell is a reference slot for one AWK variable. Globals each own one
// Cell; a function call frame holds one Cell per parameter, and array
// arguments (along with still-untyped arguments, so a callee that turns
// one into an array mutates the caller's variable too) share the
// caller's Cell instead of getting a fresh copy.
type Cell struct {
	kind   cellKind
	scalar types.Value
	array  Array
}

// NewCell returns a fresh, untyped cell.
func NewCell() *Cell {
	return &Cell{kind: cellUnset}
}

// NewScalarCell returns a cell already committed to a scalar value.
func NewScalarCell(v types.Value) *Cell {
	return &Cell{kind: cellScalar, scalar: v}
}

// IsArray reports whether the cell currently holds an array.
func (c *Cell) IsArray() bool {
	return c.kind == cellArray
}

// IsScalar reports whether the cell currently holds a scalar.
func (c *Cell) IsScalar() bool {
	return c.kind == cellScalar
}

// IsUnset reports whether the cell has never been used as either a
// scalar or an array.
func (c *Cell) IsUnset() bool {
	return c.kind == cellUnset
}

// Scalar returns the cell's scalar value. Reading an unset cell yields
// Null, matching AWK's "uninitialized variable reads as empty/zero"
// rule; it does not commit the cell's kind.
func (c *Cell) Scalar() types.Value {
	if c.kind == cellArray {
		return types.Null()
	}
	return c.scalar
}

// SetScalar commits the cell to scalar and stores v. Calling this on a
// cell already holding an array is a usage conflict; callers must check
// IsArray first and raise an AWK-level runtime error instead of calling
// this blindly, the same way the original checks "not array" before a
// scalar assignment.
func (c *Cell) SetScalar(v types.Value) {
	c.kind = cellScalar
	c.scalar = v
}

// AsArray returns the cell's backing Array, creating one (committing
// the cell to cellArray) on first use. Calling this on a cell already
// holding a scalar is a usage conflict that the interpreter must catch
// before calling AsArray.
func (c *Cell) AsArray() Array {
	if c.kind != cellArray {
		c.kind = cellArray
		c.array = make(Array)
	}
	return c.array
}

// Reset clears the cell back to unset, as `delete arr` followed by
// reuse of the bare name requires for locals reused across calls.
func (c *Cell) Reset() {
	c.kind = cellUnset
	c.scalar = types.Null()
	c.array = nil
}

// TypeConflictError reports an attempt to use a variable as both a
// scalar and an array, gawk's "can't read value of X as array" class of
// fatal error.
type TypeConflictError struct {
	Name   string
	AsWhat string // "array" or "scalar" -- what the offending use wanted
}

func (e *TypeConflictError) Error() string {
	return fmt.Sprintf("cannot use %q as %s: already used as the other type", e.Name, e.AsWhat)
}
