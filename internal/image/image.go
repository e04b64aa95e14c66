// Package image loads the microscope images that markers are placed on.
package image

import (
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"syncytia-counter/pkg/geometry"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MarkersSuffix is appended to the image base name to form the default markers filename.
const MarkersSuffix = "_markers"

// Document is an image opened for counting.
type Document struct {
	Path  string      // Original file path
	Image image.Image // Decoded, orientation-corrected image data
	DPI   float64     // Resolution from TIFF metadata, 0 if unknown
}

// Load decodes an image file, applying any EXIF orientation.
func Load(path string) (*Document, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	doc := &Document{Path: path, Image: img}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tiff" || ext == ".tif" {
		if dpi, err := extractTIFFDPI(path); err == nil {
			doc.DPI = dpi
		}
	}
	return doc, nil
}

// NewDocument wraps an already decoded image.
func NewDocument(title string, img image.Image) *Document {
	return &Document{Path: title, Image: img}
}

// Title returns the file name shown in window titles and the status line.
func (d *Document) Title() string {
	return filepath.Base(d.Path)
}

// Resolution describes the pixel size and, when the file records it, the DPI.
func (d *Document) Resolution() string {
	if d.Image == nil {
		return ""
	}
	res := fmt.Sprintf("%dx%d px", d.Width(), d.Height())
	if d.DPI > 0 {
		res += fmt.Sprintf(", %.0f DPI", d.DPI)
	}
	return res
}

// Describe returns the title followed by the resolution, if known.
func (d *Document) Describe() string {
	if res := d.Resolution(); res != "" {
		return d.Title() + " (" + res + ")"
	}
	return d.Title()
}

// Width returns the image width in pixels.
func (d *Document) Width() int {
	if d.Image == nil {
		return 0
	}
	return d.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (d *Document) Height() int {
	if d.Image == nil {
		return 0
	}
	return d.Image.Bounds().Dy()
}

// Contains reports whether an image coordinate lies on the image.
func (d *Document) Contains(p geometry.Point2D) bool {
	r := geometry.Rect{Width: float64(d.Width()), Height: float64(d.Height())}
	return r.Contains(p)
}

// MarkersPath returns the default markers file next to the image,
// e.g. "cells.tif" -> "cells_markers.json".
func (d *Document) MarkersPath() string {
	return MarkersPathFor(d.Path)
}

// MarkersPathFor returns the default markers file for an image path.
func MarkersPathFor(path string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return base + MarkersSuffix + ".json"
}

// extractTIFFDPI reads the X (or Y) resolution tag from the first IFD.
func extractTIFFDPI(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	header := make([]byte, 8)
	if _, err := io.ReadFull(file, header); err != nil {
		return 0, err
	}

	var byteOrder binary.ByteOrder
	switch string(header[:2]) {
	case "II":
		byteOrder = binary.LittleEndian
	case "MM":
		byteOrder = binary.BigEndian
	default:
		return 0, fmt.Errorf("not a valid TIFF file")
	}

	ifdOffset := byteOrder.Uint32(header[4:8])
	if _, err := file.Seek(int64(ifdOffset), io.SeekStart); err != nil {
		return 0, err
	}

	var numEntries uint16
	if err := binary.Read(file, byteOrder, &numEntries); err != nil {
		return 0, err
	}

	var xRes, yRes float64
	var resUnit uint16 = 2 // inches
	entries := make([]byte, 12*int(numEntries))
	if _, err := io.ReadFull(file, entries); err != nil {
		return 0, err
	}
	for i := 0; i < int(numEntries); i++ {
		entry := entries[i*12 : (i+1)*12]
		tag := byteOrder.Uint16(entry[0:2])
		fieldType := byteOrder.Uint16(entry[2:4])
		value := byteOrder.Uint32(entry[8:12])

		switch tag {
		case 282: // XResolution
			if fieldType == 5 {
				xRes = readTIFFRational(file, int64(value), byteOrder)
			}
		case 283: // YResolution
			if fieldType == 5 {
				yRes = readTIFFRational(file, int64(value), byteOrder)
			}
		case 296: // ResolutionUnit
			if fieldType == 3 {
				resUnit = byteOrder.Uint16(entry[8:10])
			}
		}
	}

	dpi := xRes
	if dpi == 0 {
		dpi = yRes
	}
	if dpi == 0 {
		return 0, fmt.Errorf("no resolution tags found")
	}
	if resUnit == 3 { // centimeters
		dpi *= 2.54
	}
	return dpi, nil
}

func readTIFFRational(r io.ReaderAt, offset int64, byteOrder binary.ByteOrder) float64 {
	buf := make([]byte, 8)
	if _, err := r.ReadAt(buf, offset); err != nil {
		return 0
	}
	num := byteOrder.Uint32(buf[0:4])
	denom := byteOrder.Uint32(buf[4:8])
	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

// SupportedFormats returns the image extensions the open dialog offers.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg", ".bmp", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
