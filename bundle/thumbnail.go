// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"slices"

	"github.com/go-git/go-billy/v5/util"
	xdraw "golang.org/x/image/draw"
)

// ThumbnailSize is the largest width or height of a stored thumbnail.
const ThumbnailSize = 256

const thumbnailQuality = 90

// SetThumbnail decodes a PNG, JPEG or GIF host file and stores it as the
// bundle thumbnail.
func (b *Bundle) SetThumbnail(localPath string) error {
	if err := b.usable(); err != nil {
		return err
	}
	data, err := util.ReadFile(b.opts.fs, localPath)
	if err != nil {
		return &FilesystemError{Op: "read", Path: localPath, Err: err}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decoding thumbnail %s: %w", localPath, err)
	}
	return b.SetThumbnailImage(img)
}

// SetThumbnailImage scales img to fit ThumbnailSize and stores it as JPEG.
// A nil image removes the thumbnail.
func (b *Bundle) SetThumbnailImage(img image.Image) error {
	if err := b.usable(); err != nil {
		return err
	}
	if img == nil {
		b.thumbnail = nil
		return nil
	}

	scaled := scale(img, ThumbnailSize)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return fmt.Errorf("encoding thumbnail: %w", err)
	}
	b.thumbnail = buf.Bytes()
	return nil
}

// Thumbnail returns the JPEG thumbnail, or nil.
func (b *Bundle) Thumbnail() []byte {
	return slices.Clone(b.thumbnail)
}

// scale fits img into a max x max box keeping its aspect ratio.
// Images already small enough are only copied.
func scale(img image.Image, maxSide int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxSide && h <= maxSide {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
		return dst
	}

	if w >= h {
		h = max(1, h*maxSide/w)
		w = maxSide
	} else {
		w = max(1, w*maxSide/h)
		h = maxSide
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}
