// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 560
	borderWidth   = 12
	lineHeight    = 13
)

var (
	backgroundColor = color.RGBA{R: 0xfb, G: 0xf8, B: 0xef, A: 0xff}
	borderColor     = color.RGBA{R: 0x1f, G: 0x3a, B: 0x5f, A: 0xff}
	textColor       = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
)

// Local draws a plain PNG certificate without any external service
type Local struct {
	width  int
	height int
}

type LocalOptionFunc func(*Local)

// WithSize sets the image dimensions
func WithSize(width int, height int) LocalOptionFunc {
	return func(l *Local) {
		l.width = width
		l.height = height
	}
}

func NewLocal(opts ...LocalOptionFunc) *Local {
	l := &Local{
		width:  DefaultWidth,
		height: DefaultHeight,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Local) Render(
	ctx context.Context,
	studentName string,
	educatorName string,
	courseTitle string,
	date string,
) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, l.width, l.height))
	draw.Draw(
		img,
		img.Bounds(),
		image.NewUniform(borderColor),
		image.Point{},
		draw.Src,
	)
	draw.Draw(
		img,
		image.Rect(
			borderWidth,
			borderWidth,
			l.width-borderWidth,
			l.height-borderWidth,
		),
		image.NewUniform(backgroundColor),
		image.Point{},
		draw.Src,
	)
	lines := []string{
		"CERTIFICATE OF COMPLETION",
		"",
		"This certifies that",
		studentName,
		"has completed the course",
		courseTitle,
		"",
		"Instructor: " + educatorName,
		"Date: " + date,
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
	}
	top := (l.height - len(lines)*lineHeight*2) / 2
	for i, line := range lines {
		if line == "" {
			continue
		}
		width := d.MeasureString(line).Ceil()
		x := max((l.width-width)/2, borderWidth*2)
		y := top + (i+1)*lineHeight*2
		d.Dot = fixed.P(x, y)
		d.DrawString(line)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
