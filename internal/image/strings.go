package image

import "fmt"

// AppendStringEntry appends a length-prefixed string entry to a strings
// blob under construction and returns the new blob plus the id (byte
// offset of the length byte) that refers to it.
func AppendStringEntry(blob []byte, s string) ([]byte, uint16, error) {
	if len(blob)+1+len(s) > maxRegion {
		return blob, 0, fmt.Errorf("image: strings region would exceed %d bytes", maxRegion)
	}
	if len(s) > 255 {
		return blob, 0, fmt.Errorf("image: string entry %q exceeds 255 bytes", s)
	}
	id := uint16(len(blob))
	blob = append(blob, byte(len(s)))
	blob = append(blob, s...)
	return blob, id, nil
}

// ReadStringEntry reads the length-prefixed string at byte offset id.
func ReadStringEntry(blob []byte, id uint16) (string, error) {
	if int(id) >= len(blob) {
		return "", fmt.Errorf("image: string id %d out of range (len %d)", id, len(blob))
	}
	n := int(blob[id])
	start := int(id) + 1
	end := start + n
	if end > len(blob) {
		return "", fmt.Errorf("image: string id %d truncated (need %d bytes, have %d)", id, n, len(blob)-start)
	}
	return string(blob[start:end]), nil
}
