// Package jpegquality estimates quality level a JPEG image was encoded with
// by comparing its luminance quantization table against the standard one.
package jpegquality

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

var (
	ErrInvalidJPEG  = errors.New("invalid JPEG header")
	ErrWrongTable   = errors.New("wrong size for quantization table")
	ErrShortSegment = errors.New("short segment length")
	ErrShortDQT     = errors.New("section DQT is too short")
	ErrNoDQT        = errors.New("no quantization table found")
)

const (
	markerSOI = 0xffd8
	markerEOI = 0xffd9
	markerSOS = 0xffda
	markerDQT = 0xffdb
)

// Annex K tables, order does not matter as only sums are compared.
var standardTables = [2][64]int{
	{
		16, 11, 10, 16, 24, 40, 51, 61,
		12, 12, 14, 19, 26, 58, 60, 55,
		14, 13, 16, 24, 40, 57, 69, 56,
		14, 17, 22, 29, 51, 87, 80, 62,
		18, 22, 37, 56, 68, 109, 103, 77,
		24, 35, 55, 64, 81, 104, 113, 92,
		49, 64, 78, 87, 103, 121, 120, 101,
		72, 92, 95, 98, 112, 100, 103, 99,
	},
	{
		17, 18, 24, 47, 99, 99, 99, 99,
		18, 21, 26, 66, 99, 99, 99, 99,
		24, 26, 56, 99, 99, 99, 99, 99,
		47, 66, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
	},
}

// Qualitier reports detected quality in range 1-100.
type Qualitier interface {
	Quality() int
}

type jpegReader struct {
	rs      io.ReadSeeker
	quality int
}

func (jr *jpegReader) Quality() int {
	return jr.quality
}

// NewWithBytes is New for in-memory data.
func NewWithBytes(data []byte) (Qualitier, error) {
	return New(bytes.NewReader(data))
}

// New reads JPEG markers up to the first quantization table. Reader is
// rewound before reading.
func New(rs io.ReadSeeker) (Qualitier, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	var soi [2]byte
	if _, err := io.ReadFull(rs, soi[:]); err != nil {
		return nil, err
	}
	if binary.BigEndian.Uint16(soi[:]) != markerSOI {
		return nil, ErrInvalidJPEG
	}

	jr := &jpegReader{rs: rs}
	q, err := jr.readQuality()
	if err != nil {
		return nil, err
	}
	jr.quality = q
	return jr, nil
}

func (jr *jpegReader) readQuality() (int, error) {
	for {
		marker := jr.readMarker()
		switch {
		case marker == 0:
			return 0, io.ErrUnexpectedEOF
		case marker == markerEOI || marker == markerSOS:
			return 0, ErrNoDQT
		case marker == 0xff01 || (marker >= 0xffd0 && marker <= 0xffd7):
			// standalone markers, no length
			continue
		}

		var lb [2]byte
		if _, err := io.ReadFull(jr.rs, lb[:]); err != nil {
			return 0, err
		}
		length := int(binary.BigEndian.Uint16(lb[:])) - 2
		if length < 0 {
			return 0, ErrShortSegment
		}
		if marker != markerDQT {
			if _, err := jr.rs.Seek(int64(length), io.SeekCurrent); err != nil {
				return 0, err
			}
			continue
		}

		buf := make([]byte, length)
		if _, err := io.ReadFull(jr.rs, buf); err != nil {
			return 0, ErrShortDQT
		}
		return estimate(buf)
	}
}

// readMarker returns next marker or 0 when data ended.
func (jr *jpegReader) readMarker() uint16 {
	var b [1]byte
	for {
		if _, err := io.ReadFull(jr.rs, b[:]); err != nil {
			return 0
		}
		if b[0] == 0xff {
			break
		}
	}
	// fill bytes
	for {
		if _, err := io.ReadFull(jr.rs, b[:]); err != nil {
			return 0
		}
		if b[0] != 0xff {
			return 0xff00 | uint16(b[0])
		}
	}
}

// estimate inverts libjpeg table scaling: quality q uses scale 5000/q below
// 50 and 200-2q above it.
func estimate(seg []byte) (int, error) {
	found := -1
	var sums [2]int
	for len(seg) > 0 {
		precision, id := seg[0]>>4, int(seg[0]&0x0f)
		if precision > 1 || id > 3 {
			return 0, ErrWrongTable
		}
		size := 64 * int(precision+1)
		seg = seg[1:]
		if len(seg) < size {
			return 0, ErrShortDQT
		}
		sum := 0
		for i := range 64 {
			if precision == 0 {
				sum += int(seg[i])
			} else {
				sum += int(binary.BigEndian.Uint16(seg[2*i:]))
			}
		}
		seg = seg[size:]
		if id < 2 && (found < 0 || id < found) {
			found = id
			sums[id] = sum
		}
	}
	if found < 0 {
		return 0, ErrWrongTable
	}

	std := 0
	for _, v := range standardTables[found] {
		std += v
	}
	scale := float64(sums[found]) * 100 / float64(std)

	var q float64
	if scale <= 100 {
		q = (200 - scale) / 2
	} else {
		q = 5000 / scale
	}
	return int(math.Max(1, math.Min(100, math.Round(q)))), nil
}
