// Package fits reads the primary header and data unit of FITS image files.
//
// Only what the catalog needs is supported: the primary HDU, its header cards
// and a two-dimensional data array. Extensions are ignored.
package fits

import (
	"bufio"
	"io"
	"os"

	"github.com/tphakala/asteroid-catalog/internal/errors"
)

// maxHeaderBlocks bounds header size so a file without END cannot exhaust memory.
const maxHeaderBlocks = 1024

// HDU is the primary header and data unit.
type HDU struct {
	Header *Header
	Data   *Image
}

// Open reads the primary HDU of the file at path.
func Open(path string) (*HDU, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("fits").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	defer func() { _ = f.Close() }()

	return Read(bufio.NewReader(f))
}

// Read decodes the primary header and data array from r.
func Read(r io.Reader) (*HDU, error) {
	header, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	img, err := readImage(r, header)
	if err != nil {
		return nil, err
	}
	return &HDU{Header: header, Data: img}, nil
}

// ReadHeader decodes header blocks from r up to and including the END card.
// r is left positioned at the start of the data array.
func ReadHeader(r io.Reader) (*Header, error) {
	block := make([]byte, BlockSize)
	var cards []Card

	for blockNum := 0; ; blockNum++ {
		if blockNum >= maxHeaderBlocks {
			return nil, newFormatError("read_header", "no END card within %d header blocks", maxHeaderBlocks)
		}

		if _, err := io.ReadFull(r, block); err != nil {
			switch {
			case errors.Is(err, io.EOF) && blockNum == 0:
				return nil, newFormatError("read_header", "empty file")
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
				return nil, newFormatError("read_header", "truncated header block %d", blockNum)
			default:
				return nil, errors.New(err).
					Component("fits").
					Category(errors.CategoryFileIO).
					Context("operation", "read_header").
					Build()
			}
		}

		for i := range cardsPerBlock {
			raw := string(block[i*CardSize : (i+1)*CardSize])

			if blockNum == 0 && i == 0 {
				if err := checkSimple(raw); err != nil {
					return nil, err
				}
			}

			card, err := parseCard(raw)
			if err != nil {
				return nil, err
			}
			if card.Key == "END" {
				return newHeader(cards), nil
			}
			cards = append(cards, card)
		}
	}
}

// checkSimple requires the mandatory first card SIMPLE = T.
func checkSimple(raw string) error {
	card, err := parseCard(raw)
	if err != nil {
		return err
	}
	if card.Key != "SIMPLE" || !card.valued {
		return newFormatError("read_header", "first card is %q, not SIMPLE", card.Key)
	}
	if card.Value != "T" {
		return newFormatError("read_header", "SIMPLE = %s, file does not conform to the standard", card.Value)
	}
	return nil
}
