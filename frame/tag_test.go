package frame

import "testing"

func TestTagOf(t *testing.T) {
	known := []Tag{GenericMessage, SingleMessage, MultiMessage, Control, Hello, Goodbye, Ping, Pong, Reset}
	for i, tag := range known {
		if got := TagOf(byte(i)); got != tag {
			t.Errorf("TagOf(%#x) = %v, want %v", i, got, tag)
		}
	}

	for _, b := range []byte{0x09, 0x42, 0xFE, 0xFF} {
		if got := TagOf(b); got != Undefined {
			t.Errorf("TagOf(%#x) = %v, want undefined", b, got)
		}
	}

	if byte(Undefined) != 0xFF {
		t.Errorf("Undefined = %#x, want 0xff", byte(Undefined))
	}
}

func TestParseTag(t *testing.T) {
	for tag := GenericMessage; tag <= Reset; tag++ {
		got, ok := ParseTag(tag.String())
		if !ok || got != tag {
			t.Errorf("ParseTag(%q) = %v, %v", tag.String(), got, ok)
		}
	}

	if tag, ok := ParseTag("undefined"); !ok || tag != Undefined {
		t.Errorf("ParseTag(undefined) = %v, %v", tag, ok)
	}
	if _, ok := ParseTag("nope"); ok {
		t.Error("ParseTag accepted unknown name")
	}
}

func TestFrame_Kind(t *testing.T) {
	if k := (Frame{Tag: 0x07}).Kind(); k != Pong {
		t.Errorf("Kind = %v, want pong", k)
	}
	if k := (Frame{Tag: 0x10}).Kind(); k != Undefined {
		t.Errorf("Kind = %v, want undefined", k)
	}
}
