package asm

import (
	"strings"

	"github.com/emmabritton/tape-device/internal/image"
)

// parseDataSection handles `name=[[...],[...]]` lines, packing each 2-D
// table into the data blob.
func parseDataSection(lines []srcLine) ([]byte, map[string]uint16, error) {
	var blob []byte
	ids := make(map[string]uint16)

	for _, l := range lines {
		text := strings.TrimSpace(stripComment(l.text, true))
		if text == "" {
			continue
		}
		eq := strings.IndexByte(text, '=')
		if eq < 0 {
			return nil, nil, errAt(l.no, "data entry must be name=[[...]], got %q", text)
		}
		name := strings.TrimSpace(text[:eq])
		if !isIdent(name) {
			return nil, nil, errAt(l.no, "bad data name %q", name)
		}
		if _, dup := ids[name]; dup {
			return nil, nil, errAt(l.no, "data item %q already defined", name)
		}

		table, err := parseDataTable(l.no, text[eq+1:])
		if err != nil {
			return nil, nil, err
		}

		newBlob, id, err := image.AppendDataTable(blob, table)
		if err != nil {
			return nil, nil, errAt(l.no, "%v", err)
		}
		blob = newBlob
		ids[name] = id
	}
	return blob, ids, nil
}

// tableCursor walks one data table literal byte by byte, reporting errors
// with the column the cursor stopped at.
type tableCursor struct {
	line int
	s    string
	i    int
}

func (c *tableCursor) skipSpace() {
	for c.i < len(c.s) && (c.s[c.i] == ' ' || c.s[c.i] == '\t') {
		c.i++
	}
}

func (c *tableCursor) peek() (byte, bool) {
	c.skipSpace()
	if c.i >= len(c.s) {
		return 0, false
	}
	return c.s[c.i], true
}

func (c *tableCursor) expect(want byte) error {
	b, ok := c.peek()
	if !ok || b != want {
		return errAtCol(c.line, c.i+1, "expected %q in data table", string(want))
	}
	c.i++
	return nil
}

func parseDataTable(line int, s string) (image.DataTable, error) {
	c := &tableCursor{line: line, s: s}
	if err := c.expect('['); err != nil {
		return nil, err
	}

	var table image.DataTable
	for {
		row, err := c.parseRow()
		if err != nil {
			return nil, err
		}
		table = append(table, row)

		b, ok := c.peek()
		if !ok {
			return nil, errAtCol(c.line, c.i+1, "unterminated data table")
		}
		if b == ',' {
			c.i++
			continue
		}
		if b == ']' {
			c.i++
			break
		}
		return nil, errAtCol(c.line, c.i+1, "expected \",\" or \"]\" between rows")
	}

	if b, ok := c.peek(); ok {
		return nil, errAtCol(c.line, c.i+1, "trailing content %q after data table", string(b))
	}
	return table, nil
}

func (c *tableCursor) parseRow() ([]byte, error) {
	if err := c.expect('['); err != nil {
		return nil, err
	}
	var row []byte
	for {
		b, ok := c.peek()
		if !ok {
			return nil, errAtCol(c.line, c.i+1, "unterminated data row")
		}
		if b == ']' {
			c.i++
			return row, nil
		}

		elem, err := c.parseElement()
		if err != nil {
			return nil, err
		}
		row = append(row, elem...)

		b, ok = c.peek()
		if !ok {
			return nil, errAtCol(c.line, c.i+1, "unterminated data row")
		}
		if b == ',' {
			c.i++
			continue
		}
		if b != ']' {
			return nil, errAtCol(c.line, c.i+1, "expected \",\" or \"]\" in data row")
		}
	}
}

// parseElement reads one row element: a byte-valued numeric or character
// literal, or a quoted string expanded byte by byte.
func (c *tableCursor) parseElement() ([]byte, error) {
	b, _ := c.peek()
	start := c.i

	if b == '"' {
		c.i++
		var out []byte
		for c.i < len(c.s) {
			ch := c.s[c.i]
			if ch == '"' {
				c.i++
				return out, nil
			}
			if ch == '\\' && c.i+1 < len(c.s) {
				esc, ok := unescape(c.s[c.i+1])
				if !ok {
					return nil, errAtCol(c.line, c.i+2, "bad escape in data string")
				}
				out = append(out, esc)
				c.i += 2
				continue
			}
			out = append(out, ch)
			c.i++
		}
		return nil, errAtCol(c.line, start+1, "unterminated string in data row")
	}

	if b == '\'' {
		end := strings.IndexByte(c.s[c.i+1:], '\'')
		if end < 0 {
			return nil, errAtCol(c.line, start+1, "unterminated character literal")
		}
		tok := c.s[c.i : c.i+end+2]
		c.i += end + 2
		v, ok := parseCharLiteral(tok)
		if !ok {
			return nil, errAtCol(c.line, start+1, "bad character literal %s", tok)
		}
		return []byte{v}, nil
	}

	for c.i < len(c.s) && c.s[c.i] != ',' && c.s[c.i] != ']' && c.s[c.i] != ' ' && c.s[c.i] != '\t' {
		c.i++
	}
	tok := c.s[start:c.i]
	v, ok := parseNum(tok)
	if !ok || v > 255 {
		return nil, errAtCol(c.line, start+1, "bad data byte %q (want 0-255, xHH, b bits or 'c')", tok)
	}
	return []byte{byte(v)}, nil
}
