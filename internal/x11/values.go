package x11

import (
	"sort"

	"github.com/BurntSushi/xgb/xproto"
)

// ValueList maps request value-mask bits (xproto.Cw*, xproto.ConfigWindow*)
// to their values. The protocol requires values in ascending bit order,
// which Flatten takes care of.
type ValueList map[uint32]uint32

// Flatten returns the value mask and the ordered value slice.
func (v ValueList) Flatten() (uint32, []uint32) {
	bits := make([]uint32, 0, len(v))
	var mask uint32
	for bit := range v {
		bits = append(bits, bit)
		mask |= bit
	}
	sort.Slice(bits, func(i, j int) bool { return bits[i] < bits[j] })

	values := make([]uint32, len(bits))
	for i, bit := range bits {
		values[i] = v[bit]
	}
	return mask, values
}

// Has reports whether bit is present.
func (v ValueList) Has(bit uint32) bool {
	_, ok := v[bit]
	return ok
}

// signed encodes a coordinate for a 32-bit value list slot.
func signed(n int) uint32 {
	return uint32(int32(n))
}

// geometryValues builds a ConfigureWindow value list, skipping Unset fields.
func geometryValues(x, y, width, height int) ValueList {
	values := ValueList{}
	if x != Unset {
		values[xproto.ConfigWindowX] = signed(x)
	}
	if y != Unset {
		values[xproto.ConfigWindowY] = signed(y)
	}
	if width != Unset {
		values[xproto.ConfigWindowWidth] = uint32(width)
	}
	if height != Unset {
		values[xproto.ConfigWindowHeight] = uint32(height)
	}
	return values
}
