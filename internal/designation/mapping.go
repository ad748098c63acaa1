package designation

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/logger"
)

// Header row of the mapping CSV.
var csvHeader = []string{"Provisional Name", "Official Name"}

// LoadMapping reads a two-column CSV of provisional and official names.
// A leading header row is recognised case-insensitively. Blank rows are
// skipped and a repeated provisional name keeps the last value.
func LoadMapping(fs afero.Fs, path string, log logger.Logger) (Mapping, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("designation").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	defer func() { _ = f.Close() }()

	return parseMapping(f, path, log)
}

func parseMapping(r io.Reader, path string, log logger.Logger) (Mapping, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	m := Mapping{}
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New(err).
				Component("designation").
				Category(errors.CategoryFileParsing).
				FileContext(path).
				Build()
		}

		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		if first {
			first = false
			if isHeaderRow(record) {
				continue
			}
		}
		if len(record) == 1 && record[0] == "" {
			continue
		}
		if len(record) < 2 || record[0] == "" || record[1] == "" {
			if log != nil {
				log.Debug("skipping incomplete mapping row",
					logger.String("path", path),
					logger.Any("row", record))
			}
			continue
		}
		m[record[0]] = record[1]
	}
	return m, nil
}

func isHeaderRow(record []string) bool {
	return len(record) >= 2 &&
		strings.EqualFold(record[0], csvHeader[0]) &&
		strings.EqualFold(record[1], csvHeader[1])
}

// WriteMappings writes pairs as CSV to path. With appendMode the rows are
// added to an existing file and the header is only written when the file is
// empty; otherwise the file is replaced.
func WriteMappings(fs afero.Fs, path string, pairs []Pair, appendMode bool) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	f, err := fs.OpenFile(path, flags, 0o644)
	if err != nil {
		return errors.New(err).
			Component("designation").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}

	writeHeader := true
	if appendMode {
		if info, statErr := f.Stat(); statErr == nil && info.Size() > 0 {
			writeHeader = false
		}
	}

	w := csv.NewWriter(f)
	if writeHeader {
		_ = w.Write(csvHeader)
	}
	for _, p := range pairs {
		_ = w.Write([]string{p.Provisional, p.Official})
	}
	w.Flush()

	if err := errors.Join(w.Error(), f.Close()); err != nil {
		return errors.New(err).
			Component("designation").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	return nil
}
