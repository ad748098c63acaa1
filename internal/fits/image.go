package fits

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/tphakala/asteroid-catalog/internal/errors"
)

// maxPixels caps decoded arrays at 256 Mpix.
const maxPixels = 1 << 28

// Image is a row-major two-dimensional view of the primary data array with
// BSCALE and BZERO applied.
type Image struct {
	Width  int
	Height int
	Bitpix int
	Pixels []float64
}

// At returns the physical value at column x, row y.
func (img *Image) At(x, y int) float64 {
	return img.Pixels[y*img.Width+x]
}

// Empty reports whether the HDU carried no data array.
func (img *Image) Empty() bool {
	return img == nil || len(img.Pixels) == 0
}

func bytesPerPixel(bitpix int) (int, bool) {
	switch bitpix {
	case 8:
		return 1, true
	case 16:
		return 2, true
	case 32, -32:
		return 4, true
	case 64, -64:
		return 8, true
	default:
		return 0, false
	}
}

func readImage(r io.Reader, h *Header) (*Image, error) {
	bitpix, ok := h.Bitpix()
	if !ok {
		return nil, newFormatError("read_data", "missing BITPIX")
	}
	size, ok := bytesPerPixel(bitpix)
	if !ok {
		return nil, newFormatError("read_data", "unsupported BITPIX %d", bitpix)
	}

	naxis, _ := h.NAxis()
	switch naxis {
	case 0:
		return &Image{Bitpix: bitpix}, nil
	case 2:
	default:
		return nil, newFormatError("read_data", "unsupported NAXIS %d, only 2-D images are read", naxis)
	}

	width, ok1 := h.NAxis1()
	height, ok2 := h.NAxis2()
	if !ok1 || !ok2 || width < 0 || height < 0 {
		return nil, newFormatError("read_data", "missing or negative NAXIS1/NAXIS2")
	}
	if width*height > maxPixels {
		return nil, newFormatError("read_data", "image of %dx%d pixels exceeds limit", width, height)
	}

	raw := make([]byte, width*height*size)
	if _, err := io.ReadFull(r, raw); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, newFormatError("read_data", "truncated data array, expected %d bytes", len(raw))
		}
		return nil, errors.New(err).
			Component("fits").
			Category(errors.CategoryFileIO).
			Context("operation", "read_data").
			Build()
	}

	bscale, ok := h.Float("BSCALE")
	if !ok {
		bscale = 1
	}
	bzero, _ := h.Float("BZERO")

	pixels := make([]float64, width*height)
	for i := range pixels {
		b := raw[i*size : (i+1)*size]
		var v float64
		switch bitpix {
		case 8:
			v = float64(b[0])
		case 16:
			v = float64(int16(binary.BigEndian.Uint16(b)))
		case 32:
			v = float64(int32(binary.BigEndian.Uint32(b)))
		case 64:
			v = float64(int64(binary.BigEndian.Uint64(b)))
		case -32:
			v = float64(math.Float32frombits(binary.BigEndian.Uint32(b)))
		case -64:
			v = math.Float64frombits(binary.BigEndian.Uint64(b))
		}
		pixels[i] = bzero + bscale*v
	}

	return &Image{Width: width, Height: height, Bitpix: bitpix, Pixels: pixels}, nil
}
