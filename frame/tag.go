package frame

// Tag names the well-known values of the header tag byte.
type Tag byte

const (
	GenericMessage Tag = 0x00
	SingleMessage  Tag = 0x01
	// MultiMessage marks one packet of a larger message. Reassembly is left
	// to the protocol handler.
	MultiMessage Tag = 0x02
	Control      Tag = 0x03
	Hello        Tag = 0x04
	Goodbye      Tag = 0x05
	Ping         Tag = 0x06
	Pong         Tag = 0x07
	Reset        Tag = 0x08
	// Undefined stands for every unknown tag byte; it encodes as 0xFF.
	Undefined Tag = 0xFF
)

// TagOf maps a raw tag byte to its Tag, folding unknown values to Undefined.
func TagOf(b byte) Tag {
	if b <= byte(Reset) {
		return Tag(b)
	}
	return Undefined
}

func (t Tag) String() string {
	switch t {
	case GenericMessage:
		return "generic"
	case SingleMessage:
		return "single"
	case MultiMessage:
		return "multi"
	case Control:
		return "control"
	case Hello:
		return "hello"
	case Goodbye:
		return "goodbye"
	case Ping:
		return "ping"
	case Pong:
		return "pong"
	case Reset:
		return "reset"
	default:
		return "undefined"
	}
}

// ParseTag is the inverse of Tag.String. Unknown names return Undefined and false.
func ParseTag(name string) (Tag, bool) {
	for t := GenericMessage; t <= Reset; t++ {
		if t.String() == name {
			return t, true
		}
	}
	return Undefined, name == Undefined.String()
}
