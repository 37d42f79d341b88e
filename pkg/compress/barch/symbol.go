package barch

// Symbol is one code of the packed alphabet.
type Symbol int

const (
	White  Symbol = iota // one white pixel: 1,1,0
	Black                // one black pixel: 1,1,1
	White4               // four white pixels: 0
	Black4               // four black pixels: 1,0
)

// groupLen is the run length covered by White4 and Black4.
const groupLen = 4

// code returns the bits of s in write order (bit 0 first) and their count.
func (s Symbol) code() (uint32, int) {
	switch s {
	case White:
		return 0b011, 3
	case Black:
		return 0b111, 3
	case White4:
		return 0b0, 1
	case Black4:
		return 0b01, 2
	}
	panic("barch: unknown symbol")
}

func (s Symbol) String() string {
	switch s {
	case White:
		return "White"
	case Black:
		return "Black"
	case White4:
		return "White4"
	case Black4:
		return "Black4"
	}
	return "Symbol(?)"
}

// single returns the one pixel symbol for a color.
func single(white bool) Symbol {
	if white {
		return White
	}
	return Black
}

// group returns the four pixel symbol for a color.
func group(white bool) Symbol {
	if white {
		return White4
	}
	return Black4
}

// Put writes count copies of s.
func (b *BitWriter) Put(s Symbol, count int) {
	val, n := s.code()
	for i := 0; i < count; i++ {
		b.PushBits(val, n)
	}
}

// Next decodes one symbol.
func (b *BitReader) Next() (Symbol, error) {
	bit, err := b.PullBit()
	if err != nil {
		return 0, err
	}
	if bit == 0 {
		return White4, nil
	}
	if bit, err = b.PullBit(); err != nil {
		return 0, err
	}
	if bit == 0 {
		return Black4, nil
	}
	if bit, err = b.PullBit(); err != nil {
		return 0, err
	}
	if bit == 1 {
		return Black, nil
	}
	return White, nil
}
