// Package asm compiles the textual assembly language into a binary image:
// tokenize per section, build the constant and label tables, resolve each
// operand against the opcode table's accepted shapes, and emit the tape
// regions. Every failure is reported as a located *Error.
package asm

import (
	"strings"

	"github.com/emmabritton/tape-device/internal/image"
)

const (
	maxNameLen = 20
	maxVerLen  = 10
)

// srcLine is one raw source line tagged with its 1-based number.
type srcLine struct {
	no   int
	text string
}

// Assemble compiles a full .basm source into an image. The source is the
// header (program name line, version line), then the `.strings`, `.data`
// and `.ops` sections in any order; section markers are case-sensitive,
// everything inside `.ops` is case-insensitive except names.
func Assemble(src string) (image.Image, error) {
	var header, stringsSec, dataSec, opsSec []srcLine
	cur := &header

	for no, text := range strings.Split(src, "\n") {
		line := srcLine{no: no + 1, text: text}
		switch strings.TrimSpace(text) {
		case ".strings":
			cur = &stringsSec
			continue
		case ".data":
			cur = &dataSec
			continue
		case ".ops":
			cur = &opsSec
			continue
		}
		*cur = append(*cur, line)
	}

	name, version, err := parseHeader(header)
	if err != nil {
		return image.Image{}, err
	}

	stringBlob, stringIDs, err := parseStringsSection(stringsSec)
	if err != nil {
		return image.Image{}, err
	}

	dataBlob, dataIDs, err := parseDataSection(dataSec)
	if err != nil {
		return image.Image{}, err
	}

	ops, err := assembleOps(opsSec, stringIDs, dataIDs)
	if err != nil {
		return image.Image{}, err
	}

	return image.Image{
		Name:    name,
		Version: version,
		Ops:     ops,
		Strings: stringBlob,
		Data:    dataBlob,
	}, nil
}

// parseHeader takes the lines before the first section marker: the first
// non-blank line is the program name, the second the version string.
func parseHeader(lines []srcLine) (name, version string, err error) {
	var kept []srcLine
	for _, l := range lines {
		text := strings.TrimSpace(stripComment(l.text, false))
		if text == "" {
			continue
		}
		kept = append(kept, srcLine{no: l.no, text: text})
	}
	if len(kept) == 0 {
		return "", "", errAt(1, "missing program name header line")
	}
	if len(kept) == 1 {
		return "", "", errAt(kept[0].no, "missing version header line")
	}
	if len(kept) > 2 {
		return "", "", errAt(kept[2].no, "unexpected header line %q (only name and version allowed)", kept[2].text)
	}
	name, version = kept[0].text, kept[1].text
	if len(name) > maxNameLen {
		return "", "", errAt(kept[0].no, "program name %q exceeds %d bytes", name, maxNameLen)
	}
	if len(version) > maxVerLen {
		return "", "", errAt(kept[1].no, "version %q exceeds %d bytes", version, maxVerLen)
	}
	return name, version, nil
}

// parseStringsSection handles `name=value` and `name="value"` lines,
// appending each entry to the strings blob. Inside a quoted value a
// literal double quote is written doubled.
func parseStringsSection(lines []srcLine) ([]byte, map[string]uint16, error) {
	var blob []byte
	ids := make(map[string]uint16)

	for _, l := range lines {
		text := strings.TrimSpace(stripComment(l.text, true))
		if text == "" {
			continue
		}
		eq := strings.IndexByte(text, '=')
		if eq < 0 {
			return nil, nil, errAt(l.no, "string entry must be name=value, got %q", text)
		}
		name := strings.TrimSpace(text[:eq])
		if !isIdent(name) {
			return nil, nil, errAt(l.no, "bad string name %q", name)
		}
		if _, dup := ids[name]; dup {
			return nil, nil, errAt(l.no, "string %q already defined", name)
		}

		value := strings.TrimSpace(text[eq+1:])
		if strings.HasPrefix(value, `"`) {
			unquoted, err := unquoteDoubled(l.no, eq+1, value)
			if err != nil {
				return nil, nil, err
			}
			value = unquoted
		}

		newBlob, id, err := image.AppendStringEntry(blob, value)
		if err != nil {
			return nil, nil, errAt(l.no, "%v", err)
		}
		blob = newBlob
		ids[name] = id
	}
	return blob, ids, nil
}

// unquoteDoubled strips the outer quotes and collapses doubled inner
// quotes, the strings section's escape convention.
func unquoteDoubled(line, col int, s string) (string, error) {
	var out strings.Builder
	i := 1 // past opening quote
	for i < len(s) {
		c := s[i]
		if c != '"' {
			out.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == '"' {
			out.WriteByte('"')
			i += 2
			continue
		}
		// Closing quote: nothing but whitespace may follow.
		if strings.TrimSpace(s[i+1:]) != "" {
			return "", errAtCol(line, col+i+1, "trailing content after closing quote")
		}
		return out.String(), nil
	}
	return "", errAtCol(line, col, "unterminated quoted string")
}
