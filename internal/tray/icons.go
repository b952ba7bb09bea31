package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

const iconSize = 32

var stateColors = map[State]color.RGBA{
	StateIdle:      {0xe3, 0xe3, 0xe3, 0xff},
	StateRecording: {0xe5, 0x39, 0x35, 0xff},
	StatePlaying:   {0x43, 0xa0, 0x47, 0xff},
}

func stateIcons() map[State][]byte {
	icons := make(map[State][]byte, len(stateColors))
	for state, c := range stateColors {
		icons[state] = renderDot(c)
	}
	return icons
}

// renderDot draws a filled circle on a transparent square and encodes it as PNG
func renderDot(c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	r := iconSize/2 - 2
	cx, cy := iconSize/2, iconSize/2
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(x, y, c)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
