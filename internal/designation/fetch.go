package designation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/k3a/html2text"
	"golang.org/x/text/unicode/norm"

	"github.com/tphakala/asteroid-catalog/internal/errors"
)

// maxPageSize bounds the HTML page read by FetchMappings.
const maxPageSize = 8 << 20

// Getter performs an HTTP GET bound to ctx.
type Getter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// FetchMappings downloads a page listing NEOCP objects and their official
// designations and extracts the pairs. Each relevant line has the form
// "2022 AB1 = P21abcd ...", official name left of '=' and the provisional
// designation as the first token on the right.
func FetchMappings(ctx context.Context, client Getter, url string) ([]Pair, error) {
	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, errors.New(err).
			Component("designation").
			Category(errors.CategoryNetwork).
			Context("url", url).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New(fmt.Errorf("unexpected status %d fetching mappings", resp.StatusCode)).
			Component("designation").
			Category(errors.CategoryHTTP).
			Context("url", url).
			Context("status_code", resp.StatusCode).
			Build()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, errors.New(err).
			Component("designation").
			Category(errors.CategoryNetwork).
			Context("url", url).
			Build()
	}

	return ParseMappingText(html2text.HTML2Text(string(body))), nil
}

// ParseMappingText extracts pairs from plain text. Lines without exactly one
// '=' or with an empty side are ignored.
func ParseMappingText(text string) []Pair {
	text = norm.NFKC.String(text)

	var pairs []Pair
	for line := range strings.SplitSeq(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		parts := strings.Split(line, "=")
		if len(parts) != 2 {
			continue
		}
		official := strings.Join(strings.Fields(parts[0]), " ")
		right := strings.Fields(parts[1])
		if official == "" || len(right) == 0 {
			continue
		}
		pairs = append(pairs, Pair{Provisional: right[0], Official: official})
	}
	return pairs
}
