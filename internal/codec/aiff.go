package codec

import (
	"errors"
	"io"

	"github.com/go-audio/aiff"
)

// ErrNotAIFF is returned for input without a valid FORM/AIFF header
var ErrNotAIFF = errors.New("not a valid AIFF file")

// AIFFDecoder decodes uncompressed AIFF files with go-audio/aiff
type AIFFDecoder struct{}

func (AIFFDecoder) Decode(r io.ReadSeeker) (Source, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotAIFF
	}
	dec.ReadInfo()

	format := dec.Format()
	if format == nil || format.NumChannels < 1 {
		return nil, ErrNotAIFF
	}

	return &wavSource{
		dec:        dec,
		format:     format,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		scale:      fullScale(int(dec.BitDepth)),
	}, nil
}
