package fits

import (
	"strings"

	"github.com/tphakala/asteroid-catalog/internal/errors"
)

const (
	// BlockSize is the FITS logical record length.
	BlockSize = 2880
	// CardSize is the length of one header card.
	CardSize = 80

	cardsPerBlock  = BlockSize / CardSize
	keywordWidth   = 8
	valueIndicator = "= "
)

// Card is one 80-character header record. Value holds the decoded value text:
// string values are unquoted with '' collapsed to '.
type Card struct {
	Key     string
	Value   string
	Comment string

	quoted bool // value was a FITS character string
	valued bool // card carried a value indicator
}

// IsString reports whether the value was written as a quoted string.
func (c Card) IsString() bool { return c.quoted }

// parseCard decodes a single card. Commentary cards (COMMENT, HISTORY, blank
// keyword) carry their text in Comment.
func parseCard(raw string) (Card, error) {
	key := strings.TrimSpace(raw[:keywordWidth])
	card := Card{Key: key}

	if raw[keywordWidth:keywordWidth+2] != valueIndicator || key == "COMMENT" || key == "HISTORY" || key == "" {
		card.Comment = strings.TrimRight(raw[keywordWidth:], " ")
		return card, nil
	}

	value, comment, quoted, err := parseValueField(raw[keywordWidth+2:])
	if err != nil {
		return Card{}, newFormatError("parse_card", "keyword %s: %v", key, err)
	}
	card.Value = value
	card.Comment = comment
	card.quoted = quoted
	card.valued = true
	return card, nil
}

// parseValueField splits the value/comment part of a card.
func parseValueField(field string) (value, comment string, quoted bool, err error) {
	trimmed := strings.TrimLeft(field, " ")
	if !strings.HasPrefix(trimmed, "'") {
		value, comment, _ = strings.Cut(trimmed, "/")
		return strings.TrimSpace(value), strings.TrimSpace(comment), false, nil
	}

	var sb strings.Builder
	i := 1
	closed := false
	for i < len(trimmed) {
		c := trimmed[i]
		if c == '\'' {
			if i+1 < len(trimmed) && trimmed[i+1] == '\'' {
				sb.WriteByte('\'')
				i += 2
				continue
			}
			closed = true
			i++
			break
		}
		sb.WriteByte(c)
		i++
	}
	if !closed {
		return "", "", true, errUnterminatedString
	}

	// Trailing blanks inside a string are not significant
	value = strings.TrimRight(sb.String(), " ")
	if _, after, ok := strings.Cut(trimmed[i:], "/"); ok {
		comment = strings.TrimSpace(after)
	}
	return value, comment, true, nil
}

var errUnterminatedString = errors.NewStd("unterminated string value")
