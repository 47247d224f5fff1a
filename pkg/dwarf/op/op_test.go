package op

import "testing"

func TestHex(t *testing.T) {
	tcs := []struct {
		in  []byte
		tgt string
	}{
		{[]byte{0x91, 0x68}, "0x9168"},
		{[]byte{0x91, 0x08}, "0x918"},
		{[]byte{0x50}, "0x50"},
		{[]byte{0x00, 0x0f}, "0x0f"},
		{nil, ""},
	}
	for _, tc := range tcs {
		if out := Hex(tc.in); out != tc.tgt {
			t.Errorf("Hex(%#v) = %q, expected %q", tc.in, out, tc.tgt)
		}
	}
}

func TestPrettyPrint(t *testing.T) {
	tcs := []struct {
		in  []byte
		tgt string
	}{
		{[]byte{byte(DW_OP_fbreg), 0x68}, "DW_OP_fbreg -24"},
		{[]byte{byte(DW_OP_reg0) + 5}, "DW_OP_reg5"},
		{[]byte{byte(DW_OP_breg0) + 7, 0x08, byte(DW_OP_deref)}, "DW_OP_breg7 8 DW_OP_deref"},
		{[]byte{byte(DW_OP_call_frame_cfa)}, "DW_OP_call_frame_cfa"},
		{[]byte{byte(DW_OP_regx), 0x21, byte(DW_OP_piece), 0x08}, "DW_OP_regx 0x21 DW_OP_piece 0x8"},
		{[]byte{0xee}, "0xee"},
		{[]byte{byte(DW_OP_const2u), 0x01}, "DW_OP_const2u 0x0 <truncated>"},
		{[]byte{byte(DW_OP_implicit_value), 0x02, 0xaa, 0xbb}, "DW_OP_implicit_value 2 [aabb]"},
		{[]byte{byte(DW_OP_implicit_value), 0x03, 0xaa}, "DW_OP_implicit_value <truncated>"},
		{[]byte{byte(DW_OP_implicit_value), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f}, "DW_OP_implicit_value <truncated>"},
	}
	for _, tc := range tcs {
		if out := String(tc.in); out != tc.tgt {
			t.Errorf("String(%#v) = %q, expected %q", tc.in, out, tc.tgt)
		}
	}
}
