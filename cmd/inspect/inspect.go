// Package inspect implements the "inspect" command: print the primary header
// of a FITS file and summary statistics of its image.
package inspect

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/fits"
)

// Command creates the inspect command.
func Command() *cobra.Command {
	var headerOnly bool

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the header and image statistics of a FITS file",
		Long: "Decode the primary HDU of a FITS file the way ingestion does and print " +
			"its header cards followed by the image size and pixel statistics.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.OutOrStdout(), args[0], headerOnly)
		},
	}

	cmd.Flags().BoolVar(&headerOnly, "header-only", false, "Skip decoding the data array")

	return cmd
}

// Run prints the header of the file at path and, unless headerOnly is set,
// statistics of its data array.
func Run(w io.Writer, path string, headerOnly bool) error {
	if headerOnly {
		header, err := readHeader(path)
		if err != nil {
			return err
		}
		PrintHeader(w, header)
		return nil
	}

	hdu, err := fits.Open(path)
	if err != nil {
		return err
	}
	PrintHeader(w, hdu.Header)
	fmt.Fprintln(w)
	PrintStats(w, ComputeStats(hdu.Data))
	return nil
}

func readHeader(path string) (*fits.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("inspect").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	defer func() { _ = f.Close() }()
	return fits.ReadHeader(bufio.NewReader(f))
}

// FormatCard renders a card in FITS notation. Strings are re-quoted.
func FormatCard(c fits.Card) string {
	var value string
	switch {
	case c.IsString():
		value = "'" + strings.ReplaceAll(c.Value, "'", "''") + "'"
	case c.Value == "":
		// commentary card or undefined value
		return strings.TrimRight(fmt.Sprintf("%-8s %s", c.Key, strings.TrimSpace(c.Comment)), " ")
	default:
		value = c.Value
	}

	line := fmt.Sprintf("%-8s= %s", c.Key, value)
	if c.Comment != "" {
		line += " / " + c.Comment
	}
	return line
}

// PrintHeader writes one line per card, skipping blank cards.
func PrintHeader(w io.Writer, h *fits.Header) {
	for _, c := range h.Cards() {
		if c.Key == "" && c.Comment == "" {
			continue
		}
		fmt.Fprintln(w, FormatCard(c))
	}
}

// Stats summarises a data array.
type Stats struct {
	Width  int
	Height int
	Bitpix int
	Min    float64
	Max    float64
	Mean   float64
}

// ComputeStats scans every pixel of img. An empty image yields zero Stats.
func ComputeStats(img *fits.Image) Stats {
	if img.Empty() {
		return Stats{}
	}

	s := Stats{Width: img.Width, Height: img.Height, Bitpix: img.Bitpix, Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for y := range img.Height {
		for x := range img.Width {
			v := img.At(x, y)
			s.Min = min(s.Min, v)
			s.Max = max(s.Max, v)
			sum += v
		}
	}
	s.Mean = sum / float64(img.Width*img.Height)
	return s
}

// PrintStats writes the image line.
func PrintStats(w io.Writer, s Stats) {
	if s.Width == 0 || s.Height == 0 {
		fmt.Fprintln(w, "image: none")
		return
	}
	fmt.Fprintf(w, "image: %d x %d, BITPIX %d, min %g, max %g, mean %g\n",
		s.Width, s.Height, s.Bitpix, s.Min, s.Max, s.Mean)
}
