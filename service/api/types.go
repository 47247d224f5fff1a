package api

// Unit is the analysis of one compile unit.
type Unit struct {
	// Name is the name of the compile unit, usually its main source file.
	Name string `json:"name"`
	// Offset is the offset of the compile unit entry in debug_info.
	Offset uint64 `json:"offset"`

	Structs   []Struct     `json:"structs"`
	Functions []Function   `json:"functions"`
	Tally     []TallyEntry `json:"tally"`
	// Types is only filled when the type table was requested.
	Types []Type `json:"types,omitempty"`

	// Err is set if the structs or parameters of the unit could not be
	// resolved, in which case only Types is valid.
	Err string `json:"error,omitempty"`
}

// Struct is the layout of a structure type.
type Struct struct {
	// Key is the identity key of the structure entry.
	Key     uint64   `json:"key"`
	Name    string   `json:"name"`
	Members []Member `json:"members"`
}

// Member is a member of a structure.
type Member struct {
	Name string `json:"name"`
	// Type is the composed type name, empty if it could not be determined.
	Type string `json:"type"`
}

// Function is a subprogram and its parameters.
type Function struct {
	Name   string     `json:"name"`
	Params []Variable `json:"params"`
}

// Variable is a formal parameter of a function.
type Variable struct {
	Name string `json:"name"`
	Type string `json:"type"`
	// Struct is the name of the structure Type refers to, if any.
	Struct string `json:"struct,omitempty"`
	// Location is the raw location expression, in hexadecimal.
	Location string `json:"location,omitempty"`
	// LocationExpr is the decoded location expression, only set when
	// requested.
	LocationExpr string `json:"locationExpr,omitempty"`
}

// TallyEntry is the number of parameters that have a given direct type
// name.
type TallyEntry struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Type is an entry of the type table of a compile unit.
type Type struct {
	Key  uint64 `json:"key"`
	Tag  string `json:"tag"`
	Name string `json:"name"`
	// Next is the key of the referenced entry, absent at the end of a chain.
	Next *uint64 `json:"next,omitempty"`
	// Typedef is the declared name of a typedef.
	Typedef string `json:"typedef,omitempty"`
	// Resolved is the composed type name.
	Resolved string `json:"resolved"`
	// Err is set if the reference chain starting at this entry is cyclic.
	Err string `json:"error,omitempty"`
}

// ConvertOptions controls the conversion of analysis results.
type ConvertOptions struct {
	// Types includes the type table.
	Types bool
	// LocationExpr includes decoded location expressions.
	LocationExpr bool
}
