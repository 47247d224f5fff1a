// Package leb128 reads and writes the variable length integers (LEB128)
// used by DWARF attribute values and location expressions.
package leb128
