package sample

// Type identifies the element type carried by a stream.
type Type int

const (
	Undefined Type = iota
	U8
	S8
	U16
	S16
	S32
	F32
	F64
	CU8
	CS8
	CU16
	CS16
	CF32
	CF64
)

var typeNames = map[Type]string{
	Undefined: "undefined",
	U8:        "u8",
	S8:        "s8",
	U16:       "u16",
	S16:       "s16",
	S32:       "s32",
	F32:       "f32",
	F64:       "f64",
	CU8:       "cu8",
	CS8:       "cs8",
	CU16:      "cu16",
	CS16:      "cs16",
	CF32:      "cf32",
	CF64:      "cf64",
}

var typeSizes = map[Type]int{
	U8:   1,
	S8:   1,
	U16:  2,
	S16:  2,
	S32:  4,
	F32:  4,
	F64:  8,
	CU8:  2,
	CS8:  2,
	CU16: 4,
	CS16: 4,
	CF32: 8,
	CF64: 16,
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Size returns the element footprint in bytes, 0 for Undefined.
func (t Type) Size() int {
	return typeSizes[t]
}

// IsComplex reports whether t is one of the I/Q types.
func (t Type) IsComplex() bool {
	return t >= CU8 && t <= CF64
}

// TypeOf returns the stream type id of T, or Undefined if T is not a
// stream element type.
func TypeOf[T any]() Type {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return U8
	case int8:
		return S8
	case uint16:
		return U16
	case int16:
		return S16
	case int32:
		return S32
	case float32:
		return F32
	case float64:
		return F64
	case IQ[uint8]:
		return CU8
	case IQ[int8]:
		return CS8
	case IQ[uint16]:
		return CU16
	case IQ[int16]:
		return CS16
	case IQ[float32]:
		return CF32
	case IQ[float64]:
		return CF64
	}
	return Undefined
}
