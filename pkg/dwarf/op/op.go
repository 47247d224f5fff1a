package op

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dwarfsym/dwarfsym/pkg/dwarf/leb128"
)

// Opcode represent a DWARF stack program instruction.
// See ./opcodes.go for a full list.
type Opcode byte

// Hex renders a location expression as a single hexadecimal number: "0x"
// followed by every byte in lowercase hex, without padding or separators.
// Returns the empty string for an empty expression.
func Hex(instructions []byte) string {
	if len(instructions) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("0x")
	for _, b := range instructions {
		sb.WriteString(strconv.FormatUint(uint64(b), 16))
	}
	return sb.String()
}

// PrettyPrint prints the DWARF stack program instructions to `out`.
// Instructions are decoded, not executed.
func PrettyPrint(out io.Writer, instructions []byte) {
	in := bytes.NewReader(instructions)

	first := true
	for {
		opcode, err := in.ReadByte()
		if err != nil {
			break
		}
		if !first {
			out.Write([]byte{' '})
		}
		first = false
		if name, hasname := opcodeName[Opcode(opcode)]; hasname {
			io.WriteString(out, name)
		} else {
			fmt.Fprintf(out, "%#x", opcode)
		}
		for _, arg := range opcodeArgs[Opcode(opcode)] {
			var err error
			switch arg {
			case 's':
				var n int64
				n, _, err = leb128.DecodeSigned(in)
				fmt.Fprintf(out, " %d", n)
			case 'u':
				var n uint64
				n, _, err = leb128.DecodeUnsigned(in)
				fmt.Fprintf(out, " %#x", n)
			case '1':
				var x uint8
				err = binary.Read(in, binary.LittleEndian, &x)
				fmt.Fprintf(out, " %#x", x)
			case '2':
				var x uint16
				err = binary.Read(in, binary.LittleEndian, &x)
				fmt.Fprintf(out, " %#x", x)
			case '4':
				var x uint32
				err = binary.Read(in, binary.LittleEndian, &x)
				fmt.Fprintf(out, " %#x", x)
			case '8':
				var x uint64
				err = binary.Read(in, binary.LittleEndian, &x)
				fmt.Fprintf(out, " %#x", x)
			case 'B':
				var sz uint64
				sz, _, err = leb128.DecodeUnsigned(in)
				if err != nil {
					break
				}
				if sz > uint64(in.Len()) {
					err = io.ErrUnexpectedEOF
					break
				}
				data := make([]byte, sz)
				in.Read(data)
				fmt.Fprintf(out, " %d [%x]", sz, data)
			}
			if err != nil {
				io.WriteString(out, " <truncated>")
				return
			}
		}
	}
}

// String returns the output of PrettyPrint for instructions.
func String(instructions []byte) string {
	var buf bytes.Buffer
	PrettyPrint(&buf, instructions)
	return buf.String()
}
