package barch

import "io"

// BitWriter accumulates codes least-significant-bit first into bytes.
// Bit i of the stream lands in bit (i % 8) of byte (i / 8).
type BitWriter struct {
	out  []byte
	buf  uint32 // pending bits, oldest in bit 0
	bits int    // number of valid bits in buf (0-7 between calls)
}

// NewBitWriter creates a writer with room for about sizeHint bytes.
func NewBitWriter(sizeHint int) *BitWriter {
	return &BitWriter{out: make([]byte, 0, sizeHint)}
}

// PushBits appends the low n bits of val (n <= 24), bit 0 first.
func (b *BitWriter) PushBits(val uint32, n int) {
	b.buf |= (val & (1<<n - 1)) << b.bits
	b.bits += n
	for b.bits >= 8 {
		b.out = append(b.out, byte(b.buf))
		b.buf >>= 8
		b.bits -= 8
	}
}

// Len returns the number of bits pushed since the last Reset.
func (b *BitWriter) Len() int {
	return len(b.out)*8 + b.bits
}

// Flush emits any pending bits as a final byte with zeroed high bits
// and returns the accumulated bytes. The writer keeps its output until Reset.
func (b *BitWriter) Flush() []byte {
	if b.bits > 0 {
		b.out = append(b.out, byte(b.buf))
		b.buf = 0
		b.bits = 0
	}
	return b.out
}

// Reset discards all output so the writer can be reused for the next line.
func (b *BitWriter) Reset() {
	b.out = b.out[:0]
	b.buf = 0
	b.bits = 0
}

// BitReader pulls bits least-significant-bit first from a byte slice.
type BitReader struct {
	data []byte
	pos  int // absolute bit position
}

// NewBitReader reads bits from data.
func NewBitReader(data []byte) *BitReader {
	return &BitReader{data: data}
}

// PullBits reads n bits (n <= 24). The first bit read is bit 0 of the result.
// It returns io.ErrUnexpectedEOF when fewer than n bits remain; no bits are
// consumed in that case.
func (b *BitReader) PullBits(n int) (uint32, error) {
	if b.Remaining() < n {
		return 0, io.ErrUnexpectedEOF
	}
	var val uint32
	for i := 0; i < n; i++ {
		bit := (b.data[b.pos>>3] >> (b.pos & 7)) & 1
		val |= uint32(bit) << i
		b.pos++
	}
	return val, nil
}

// PullBit reads a single bit.
func (b *BitReader) PullBit() (uint32, error) {
	return b.PullBits(1)
}

// Remaining returns the number of unread bits.
func (b *BitReader) Remaining() int {
	return len(b.data)*8 - b.pos
}
