package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// normalizeJSONC turns JSONC into plain JSON by blanking comments and
// trailing commas in place. Byte offsets are preserved, so decoder errors
// still point at the right line and column of the original file.
func normalizeJSONC(content string) (string, error) {
	buf := []byte(content)
	trailing := -1 // offset of a comma not yet followed by a value

	for i := 0; i < len(buf); i++ {
		c := buf[i]
		switch {
		case c == '"':
			i = stringEnd(buf, i)
			trailing = -1
		case c == '/' && i+1 < len(buf) && buf[i+1] == '/':
			end := i
			for end < len(buf) && buf[end] != '\n' && buf[end] != '\r' {
				end++
			}
			blank(buf[i:end])
			i = end - 1
		case c == '/' && i+1 < len(buf) && buf[i+1] == '*':
			stop := strings.Index(content[i+2:], "*/")
			if stop < 0 {
				return "", errors.New("unterminated block comment in JSONC")
			}
			end := i + 2 + stop + 2
			blank(buf[i:end])
			i = end - 1
		case c == ',':
			trailing = i
		case c == '}' || c == ']':
			if trailing >= 0 {
				buf[trailing] = ' '
			}
			trailing = -1
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		default:
			trailing = -1
		}
	}
	return string(buf), nil
}

// stringEnd returns the index of the quote closing the string opened at start,
// or the last index when the string is unterminated.
func stringEnd(buf []byte, start int) int {
	for i := start + 1; i < len(buf); i++ {
		switch buf[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return len(buf) - 1
}

// blank overwrites b with spaces, keeping line structure intact.
func blank(b []byte) {
	for i, c := range b {
		if c != '\n' && c != '\r' && c != '\t' {
			b[i] = ' '
		}
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra json.RawMessage
	switch err := decoder.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return err
	default:
		return errors.New("multiple JSON values are not allowed")
	}
}

// wrapJSONDecodeError prefixes syntax and type errors with their source position.
func wrapJSONDecodeError(content string, err error) error {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return err
	}
	line, col := offsetToLineCol(content, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

// offsetToLineCol maps a 1-based decoder offset to a 1-based line and column.
func offsetToLineCol(content string, offset int64) (int, int) {
	end := int(min(max(offset, 1), int64(len(content)))) - 1
	if end < 0 {
		return 1, 1
	}
	prefix := content[:end]
	return strings.Count(prefix, "\n") + 1, len(prefix) - strings.LastIndexByte(prefix, '\n')
}
