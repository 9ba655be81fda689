package image

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Magic is the 3 byte prefix every tape file begins with.
var Magic = [3]byte{0xFD, 0xA0, 0x10}

const (
	maxNameLen = 20
	maxVerLen  = 10
	maxRegion  = 65535
)

// Image is the fully assembled program: header metadata plus the three
// independently size-bounded regions the device loads.
type Image struct {
	Name    string
	Version string
	Ops     []byte
	Strings []byte
	Data    []byte
}

// Encode serializes the image into the tape file wire format: magic,
// name, version, then each region length-prefixed, all big-endian.
func (img Image) Encode() ([]byte, error) {
	if len(img.Name) > maxNameLen {
		return nil, fmt.Errorf("image: program name %q exceeds %d bytes", img.Name, maxNameLen)
	}
	if len(img.Version) > maxVerLen {
		return nil, fmt.Errorf("image: version %q exceeds %d bytes", img.Version, maxVerLen)
	}
	if len(img.Ops) > maxRegion {
		return nil, fmt.Errorf("image: ops region %d bytes exceeds %d", len(img.Ops), maxRegion)
	}
	if len(img.Strings) > maxRegion {
		return nil, fmt.Errorf("image: strings region %d bytes exceeds %d", len(img.Strings), maxRegion)
	}
	if len(img.Data) > maxRegion {
		return nil, fmt.Errorf("image: data region %d bytes exceeds %d", len(img.Data), maxRegion)
	}

	var buf bytes.Buffer
	buf.Write(Magic[:])
	buf.WriteByte(byte(len(img.Name)))
	buf.WriteString(img.Name)
	buf.WriteByte(byte(len(img.Version)))
	buf.WriteString(img.Version)

	writeRegion := func(r []byte) {
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(r)))
		buf.Write(lenBuf[:])
		buf.Write(r)
	}
	writeRegion(img.Ops)
	writeRegion(img.Strings)
	writeRegion(img.Data)

	return buf.Bytes(), nil
}

// Decode parses a tape file previously produced by Encode.
func Decode(raw []byte) (Image, error) {
	r := bytes.NewReader(raw)

	var magic [3]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return Image{}, fmt.Errorf("image: reading magic: %w", err)
	}
	if magic != Magic {
		return Image{}, fmt.Errorf("image: bad magic %x, want %x", magic, Magic)
	}

	name, err := readShortString(r, maxNameLen)
	if err != nil {
		return Image{}, fmt.Errorf("image: reading name: %w", err)
	}
	version, err := readShortString(r, maxVerLen)
	if err != nil {
		return Image{}, fmt.Errorf("image: reading version: %w", err)
	}

	ops, err := readRegion(r)
	if err != nil {
		return Image{}, fmt.Errorf("image: reading ops region: %w", err)
	}
	strs, err := readRegion(r)
	if err != nil {
		return Image{}, fmt.Errorf("image: reading strings region: %w", err)
	}
	data, err := readRegion(r)
	if err != nil {
		return Image{}, fmt.Errorf("image: reading data region: %w", err)
	}

	return Image{Name: name, Version: version, Ops: ops, Strings: strs, Data: data}, nil
}

func readShortString(r *bytes.Reader, max int) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	if int(n) > max {
		return "", fmt.Errorf("length %d exceeds max %d", n, max)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readRegion(r *bytes.Reader) ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
	}
	return buf, nil
}
