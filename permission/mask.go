package permission

// Mask64 is a set of up to 63 permissions. Bit 63 is reserved as the root bit,
// which implies every permission.
type Mask64 uint64

const rootBit = 63

// Has reports whether bit is set or the root bit is set.
func (m Mask64) Has(bit int) bool {
	if bit < 0 || bit >= rootBit {
		return false
	}
	if m&(1<<rootBit) != 0 {
		return true
	}
	return m&(1<<bit) != 0
}

// Set adds bit to the mask.
func (m *Mask64) Set(bit int) {
	if bit < 0 || bit > rootBit {
		return
	}
	*m |= 1 << bit
}

// Clear removes bit from the mask.
func (m *Mask64) Clear(bit int) {
	if bit < 0 || bit > rootBit {
		return
	}
	*m &^= 1 << bit
}

// Root reports whether the root bit is set.
func (m Mask64) Root() bool {
	return m&(1<<rootBit) != 0
}

// Raw returns the mask as an integer.
func (m Mask64) Raw() uint64 {
	return uint64(m)
}
