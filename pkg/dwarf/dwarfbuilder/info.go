package dwarfbuilder

import (
	"bytes"
	"debug/dwarf"
	"encoding/binary"

	"github.com/dwarfsym/dwarfsym/pkg/dwarf/leb128"
)

// Form represents a DWARF form kind (see Figure 20, page 160 and following,
// DWARF v4)
type Form uint16

const (
	DW_FORM_addr       Form = 0x01 // address
	DW_FORM_data2      Form = 0x05 // constant
	DW_FORM_string     Form = 0x08 // string
	DW_FORM_data1      Form = 0x0b // constant
	DW_FORM_ref_addr   Form = 0x10 // reference
	DW_FORM_sec_offset Form = 0x17 // lineptr, loclistptr, macptr, rangelistptr
	DW_FORM_exprloc    Form = 0x18 // exprloc
)

// Encoding represents a DWARF base type encoding (see section 7.8, page 168
// and following, DWARF v4).
type Encoding uint16

const (
	DW_ATE_address       Encoding = 0x01
	DW_ATE_boolean       Encoding = 0x02
	DW_ATE_float         Encoding = 0x04
	DW_ATE_signed        Encoding = 0x05
	DW_ATE_signed_char   Encoding = 0x06
	DW_ATE_unsigned      Encoding = 0x07
	DW_ATE_unsigned_char Encoding = 0x08
)

// Address represents a machine address.
type Address uint64

// LocListPtr is an offset into debug_loc, written as DW_FORM_sec_offset.
type LocListPtr uint32

type tagDescr struct {
	tag dwarf.Tag

	attr     []dwarf.Attr
	form     []Form
	children bool
}

type tagState struct {
	off dwarf.Offset
	tagDescr
}

// TagOpen starts a new DIE, call TagClose after adding all attributes and
// children elements. If name is not empty it is written as the first
// attribute.
func (b *Builder) TagOpen(tag dwarf.Tag, name string) dwarf.Offset {
	if len(b.tagStack) > 0 {
		b.tagStack[len(b.tagStack)-1].children = true
	}
	ts := &tagState{off: dwarf.Offset(b.info.Len())}
	ts.tag = tag
	b.info.WriteByte(0)
	b.tagStack = append(b.tagStack, ts)
	if name != "" {
		b.Attr(dwarf.AttrName, name)
	}

	return ts.off
}

// SetHasChildren sets the current DIE as having children (even if none are added).
func (b *Builder) SetHasChildren() {
	if len(b.tagStack) <= 0 {
		panic("NoChildren with no open tags")
	}
	b.tagStack[len(b.tagStack)-1].children = true
}

// TagClose closes the current DIE.
func (b *Builder) TagClose() {
	if len(b.tagStack) <= 0 {
		panic("TagClose with no open tags")
	}
	tag := b.tagStack[len(b.tagStack)-1]
	abbrev := b.abbrevFor(tag.tagDescr)
	b.info.Bytes()[tag.off] = abbrev
	if tag.children {
		b.info.WriteByte(0)
	}
	b.tagStack = b.tagStack[:len(b.tagStack)-1]
}

// Attr adds an attribute to the current DIE.
func (b *Builder) Attr(attr dwarf.Attr, val interface{}) {
	if len(b.tagStack) <= 0 {
		panic("Attr with no open tags")
	}
	tag := b.tagStack[len(b.tagStack)-1]
	if tag.children {
		panic("Can't add attributes after adding children")
	}

	tag.attr = append(tag.attr, attr)

	switch x := val.(type) {
	case string:
		tag.form = append(tag.form, DW_FORM_string)
		b.info.Write([]byte(x))
		b.info.WriteByte(0)
	case uint8:
		tag.form = append(tag.form, DW_FORM_data1)
		binary.Write(&b.info, binary.LittleEndian, x)
	case uint16:
		tag.form = append(tag.form, DW_FORM_data2)
		binary.Write(&b.info, binary.LittleEndian, x)
	case Address:
		tag.form = append(tag.form, DW_FORM_addr)
		binary.Write(&b.info, binary.LittleEndian, x)
	case dwarf.Offset:
		tag.form = append(tag.form, DW_FORM_ref_addr)
		binary.Write(&b.info, binary.LittleEndian, x)
	case LocListPtr:
		tag.form = append(tag.form, DW_FORM_sec_offset)
		binary.Write(&b.info, binary.LittleEndian, uint32(x))
	case []byte:
		tag.form = append(tag.form, DW_FORM_exprloc)
		leb128.EncodeUnsigned(&b.info, uint64(len(x)))
		b.info.Write(x)
	default:
		panic("unknown value type")
	}
}

func sameTagDescr(a, b tagDescr) bool {
	if a.tag != b.tag {
		return false
	}
	if len(a.attr) != len(b.attr) {
		return false
	}
	if a.children != b.children {
		return false
	}
	for i := range a.attr {
		if a.attr[i] != b.attr[i] {
			return false
		}
		if a.form[i] != b.form[i] {
			return false
		}
	}
	return true
}

// abbrevFor returns an abbrev for the given entry description. If no abbrev
// for tag already exist a new one is created.
func (b *Builder) abbrevFor(tag tagDescr) byte {
	for abbrev, descr := range b.abbrevs {
		if sameTagDescr(descr, tag) {
			return byte(abbrev + 1)
		}
	}

	b.abbrevs = append(b.abbrevs, tag)
	return byte(len(b.abbrevs))
}

func (b *Builder) makeAbbrevTable() []byte {
	var abbrev bytes.Buffer

	for i := range b.abbrevs {
		leb128.EncodeUnsigned(&abbrev, uint64(i+1))
		leb128.EncodeUnsigned(&abbrev, uint64(b.abbrevs[i].tag))
		if b.abbrevs[i].children {
			abbrev.WriteByte(0x01)
		} else {
			abbrev.WriteByte(0x00)
		}
		for j := range b.abbrevs[i].attr {
			leb128.EncodeUnsigned(&abbrev, uint64(b.abbrevs[i].attr[j]))
			leb128.EncodeUnsigned(&abbrev, uint64(b.abbrevs[i].form[j]))
		}
		leb128.EncodeUnsigned(&abbrev, 0)
		leb128.EncodeUnsigned(&abbrev, 0)
	}
	abbrev.WriteByte(0)

	return abbrev.Bytes()
}

// AddBaseType adds a new base type entry to debug_info.
// Will write a DW_TAG_base_type, followed by a DW_AT_byte_size and a
// DW_AT_encoding.
func (b *Builder) AddBaseType(typename string, encoding Encoding, byteSz uint8) dwarf.Offset {
	r := b.TagOpen(dwarf.TagBaseType, typename)
	b.Attr(dwarf.AttrByteSize, byteSz)
	b.Attr(dwarf.AttrEncoding, uint8(encoding))
	b.TagClose()
	return r
}

// AddStructType adds a new structure type to debug_info. Call TagClose to
// finish adding fields.
// Will write a DW_TAG_structure_type, followed by a DW_AT_byte_size.
func (b *Builder) AddStructType(typename string, byteSz uint8) dwarf.Offset {
	r := b.TagOpen(dwarf.TagStructType, typename)
	b.Attr(dwarf.AttrByteSize, byteSz)
	return r
}

// AddUnionType adds a new union type to debug_info. Call TagClose to
// finish adding fields.
func (b *Builder) AddUnionType(typename string, byteSz uint8) dwarf.Offset {
	r := b.TagOpen(dwarf.TagUnionType, typename)
	b.Attr(dwarf.AttrByteSize, byteSz)
	return r
}

// AddMember adds a new member entry to debug_info.
// Writes a DW_TAG_member followed by DW_AT_type and DW_AT_data_member_location.
func (b *Builder) AddMember(fieldname string, typ dwarf.Offset, memberOff uint8) dwarf.Offset {
	r := b.TagOpen(dwarf.TagMember, fieldname)
	b.Attr(dwarf.AttrType, typ)
	b.Attr(dwarf.AttrDataMemberLoc, memberOff)
	b.TagClose()
	return r
}

// AddPointerType adds a new pointer type to debug_info.
func (b *Builder) AddPointerType(typ dwarf.Offset) dwarf.Offset {
	r := b.TagOpen(dwarf.TagPointerType, "")
	b.Attr(dwarf.AttrByteSize, uint8(8))
	b.Attr(dwarf.AttrType, typ)
	b.TagClose()
	return r
}

// AddModifierType adds a type modifier entry (DW_TAG_const_type,
// DW_TAG_volatile_type, DW_TAG_restrict_type...) referring to typ.
func (b *Builder) AddModifierType(tag dwarf.Tag, typ dwarf.Offset) dwarf.Offset {
	r := b.TagOpen(tag, "")
	b.Attr(dwarf.AttrType, typ)
	b.TagClose()
	return r
}

// AddTypedef adds a new typedef to debug_info.
func (b *Builder) AddTypedef(typename string, typ dwarf.Offset) dwarf.Offset {
	r := b.TagOpen(dwarf.TagTypedef, typename)
	b.Attr(dwarf.AttrType, typ)
	b.TagClose()
	return r
}

// AddSubprogram adds a subprogram declaration to debug_info, must call
// TagClose after adding all parameters.
// Will write a DW_TAG_subprogram, followed by a DW_AT_low_pc and a
// DW_AT_high_pc.
func (b *Builder) AddSubprogram(fnname string, lowpc, highpc uint64) dwarf.Offset {
	r := b.TagOpen(dwarf.TagSubprogram, fnname)
	b.Attr(dwarf.AttrLowpc, Address(lowpc))
	b.Attr(dwarf.AttrHighpc, Address(highpc))
	return r
}

// AddFormalParameter adds a new parameter entry to debug_info.
// Will write a DW_TAG_formal_parameter, followed by a DW_AT_type and, if
// loc is not nil, a DW_AT_location. An empty name produces an anonymous
// parameter.
func (b *Builder) AddFormalParameter(varname string, typ dwarf.Offset, loc interface{}) dwarf.Offset {
	r := b.TagOpen(dwarf.TagFormalParameter, varname)
	b.Attr(dwarf.AttrType, typ)
	if loc != nil {
		b.Attr(dwarf.AttrLocation, loc)
	}
	b.TagClose()
	return r
}
