package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Samples is a chunk of device-native audio delivered by a capture callback
type Samples interface {
	// Format is the native encoding of the chunk
	Format() SampleFormat

	// Len is the number of interleaved samples in the chunk
	Len() int

	// AppendPCM16 converts the chunk to signed 16-bit PCM and appends it to dst
	AppendPCM16(dst []int16) []int16
}

// I16Samples are signed 16-bit samples (passed through unchanged)
type I16Samples []int16

func (s I16Samples) Format() SampleFormat { return FormatI16 }
func (s I16Samples) Len() int             { return len(s) }

func (s I16Samples) AppendPCM16(dst []int16) []int16 {
	return append(dst, s...)
}

// U16Samples are offset-binary unsigned 16-bit samples
type U16Samples []uint16

func (s U16Samples) Format() SampleFormat { return FormatU16 }
func (s U16Samples) Len() int             { return len(s) }

func (s U16Samples) AppendPCM16(dst []int16) []int16 {
	for _, v := range s {
		dst = append(dst, U16ToPCM16(v))
	}
	return dst
}

// U8Samples are offset-binary unsigned 8-bit samples
type U8Samples []uint8

func (s U8Samples) Format() SampleFormat { return FormatU8 }
func (s U8Samples) Len() int             { return len(s) }

func (s U8Samples) AppendPCM16(dst []int16) []int16 {
	for _, v := range s {
		dst = append(dst, U8ToPCM16(v))
	}
	return dst
}

// F32Samples are float samples nominally in [-1,1]
type F32Samples []float32

func (s F32Samples) Format() SampleFormat { return FormatF32 }
func (s F32Samples) Len() int             { return len(s) }

func (s F32Samples) AppendPCM16(dst []int16) []int16 {
	for _, v := range s {
		dst = append(dst, F32ToPCM16(v))
	}
	return dst
}

// RawSamples are little-endian packed samples as delivered by byte-oriented
// drivers. Format must have passed CheckFormat.
type RawSamples struct {
	Fmt  SampleFormat
	Data []byte
}

func (s RawSamples) Format() SampleFormat { return s.Fmt }

func (s RawSamples) Len() int {
	size := SampleSize(s.Fmt)
	if size == 0 {
		return 0
	}
	return len(s.Data) / size
}

func (s RawSamples) AppendPCM16(dst []int16) []int16 {
	n := s.Len()
	switch s.Fmt {
	case FormatI16:
		for i := 0; i < n; i++ {
			dst = append(dst, int16(binary.LittleEndian.Uint16(s.Data[2*i:])))
		}
	case FormatU16:
		for i := 0; i < n; i++ {
			dst = append(dst, U16ToPCM16(binary.LittleEndian.Uint16(s.Data[2*i:])))
		}
	case FormatU8:
		for i := 0; i < n; i++ {
			dst = append(dst, U8ToPCM16(s.Data[i]))
		}
	case FormatF32:
		for i := 0; i < n; i++ {
			dst = append(dst, F32ToPCM16(math.Float32frombits(binary.LittleEndian.Uint32(s.Data[4*i:]))))
		}
	}
	return dst
}

// U16ToPCM16 maps offset-binary to two's complement
func U16ToPCM16(v uint16) int16 {
	return int16(int32(v) - 32768)
}

// U8ToPCM16 maps an 8-bit offset-binary sample onto the 16-bit range
func U8ToPCM16(v uint8) int16 {
	return int16((int32(v) - 128) << 8)
}

// F32ToPCM16 clamps to [-1,1], scales by 32767 and truncates toward zero
func F32ToPCM16(v float32) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	} else if v != v {
		// NaN
		return 0
	}
	return int16(v * math.MaxInt16)
}

// SampleSize returns the packed size in bytes of one sample
func SampleSize(f SampleFormat) int {
	switch f {
	case FormatU8, FormatI8:
		return 1
	case FormatU16, FormatI16:
		return 2
	case FormatI24:
		return 3
	case FormatI32, FormatF32:
		return 4
	default:
		return 0
	}
}

// CheckFormat fails with ErrUnsupportedFormat unless f can be converted to PCM16
func CheckFormat(f SampleFormat) error {
	switch f {
	case FormatU8, FormatU16, FormatI16, FormatF32:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// FormatNames converts formats to their report names
func FormatNames(formats []SampleFormat) []string {
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, f.String())
	}
	return names
}
