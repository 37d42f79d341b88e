package barch

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Extension is the conventional file suffix of packed images.
const Extension = ".barch"

// Line holds one packed scan line. An empty line is the all-white sentinel.
type Line []byte

// IsSentinel reports whether l is the zero-length all-white marker.
func (l Line) IsSentinel() bool {
	return len(l) == 0
}

// PackedImage is the in-memory form of a packed file:
//
//	u16 width | u16 height | { u16 len | len bytes }...
//
// all little-endian. The scan axis is not recorded in the stream.
type PackedImage struct {
	Width  uint16
	Height uint16
	Lines  []Line
}

// Validate checks that the line count matches the image for the given axis.
func (p *PackedImage) Validate(axis Axis) error {
	if p == nil {
		return fmt.Errorf("%w: nil packed image", ErrFormat)
	}
	if p.Width == 0 || p.Height == 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrFormat, p.Width, p.Height)
	}
	count, _ := axis.lines(int(p.Width), int(p.Height))
	if len(p.Lines) != count {
		return fmt.Errorf("%w: %d lines for %dx%d scanned by %s, expected %d", ErrFormat, len(p.Lines), p.Width, p.Height, axis, count)
	}
	for i, l := range p.Lines {
		if len(l) > math.MaxUint16 {
			return fmt.Errorf("%w: line %d is %d bytes", ErrFormat, i, len(l))
		}
	}
	return nil
}

// WriteTo serializes p. It implements io.WriterTo.
func (p *PackedImage) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	var hdr [4]byte
	binary.LittleEndian.PutUint16(hdr[0:2], p.Width)
	binary.LittleEndian.PutUint16(hdr[2:4], p.Height)
	c, err := bw.Write(hdr[:])
	n += int64(c)
	if err != nil {
		return n, err
	}
	for i, l := range p.Lines {
		if len(l) > math.MaxUint16 {
			return n, fmt.Errorf("%w: line %d is %d bytes", ErrFormat, i, len(l))
		}
		binary.LittleEndian.PutUint16(hdr[0:2], uint16(len(l)))
		c, err = bw.Write(hdr[0:2])
		n += int64(c)
		if err != nil {
			return n, err
		}
		c, err = bw.Write(l)
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// MarshalBinary returns the serialized form of p.
func (p *PackedImage) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadPacked parses a packed stream: the header, then line entries until EOF.
func ReadPacked(r io.Reader) (*PackedImage, error) {
	br := bufio.NewReader(r)
	var hdr [4]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrFormat, err)
	}
	p := &PackedImage{
		Width:  binary.LittleEndian.Uint16(hdr[0:2]),
		Height: binary.LittleEndian.Uint16(hdr[2:4]),
	}
	for {
		_, err := io.ReadFull(br, hdr[0:2])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading length of line %d: %v", ErrFormat, len(p.Lines), err)
		}
		size := binary.LittleEndian.Uint16(hdr[0:2])
		if size == 0 {
			p.Lines = append(p.Lines, nil)
			continue
		}
		line := make(Line, size)
		if _, err := io.ReadFull(br, line); err != nil {
			return nil, fmt.Errorf("%w: line %d truncated: %v", ErrFormat, len(p.Lines), err)
		}
		p.Lines = append(p.Lines, line)
	}
	return p, nil
}

// UnmarshalBinary parses data into p.
func (p *PackedImage) UnmarshalBinary(data []byte) error {
	q, err := ReadPacked(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*p = *q
	return nil
}

// Stats summarizes a packed image.
type Stats struct {
	Lines       int
	Sentinels   int
	PackedBytes int     // payload bytes, excluding length prefixes
	EncodedSize int     // total serialized size
	RawSize     int     // width*height
	Ratio       float64 // EncodedSize / RawSize
}

// Stats computes size figures for p.
func (p *PackedImage) Stats() Stats {
	s := Stats{
		Lines:       len(p.Lines),
		EncodedSize: 4 + 2*len(p.Lines),
		RawSize:     int(p.Width) * int(p.Height),
	}
	for _, l := range p.Lines {
		if l.IsSentinel() {
			s.Sentinels++
		}
		s.PackedBytes += len(l)
	}
	s.EncodedSize += s.PackedBytes
	if s.RawSize > 0 {
		s.Ratio = float64(s.EncodedSize) / float64(s.RawSize)
	}
	return s
}
