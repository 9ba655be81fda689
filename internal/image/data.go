package image

import "fmt"

// DataTable is one packaged 2-D byte table: an outer array of
// variable-length inner byte rows.
type DataTable [][]byte

// AppendDataTable packs a DataTable into a data blob under construction using
// the wire layout `outerCount:1 | innerLen[0..outerCount-1]:1 | rows...`
// and returns the new blob plus the id (byte offset of the header) that
// refers to it.
func AppendDataTable(blob []byte, t DataTable) ([]byte, uint16, error) {
	if len(t) > 254 {
		return blob, 0, fmt.Errorf("image: data table has %d rows, max is 254", len(t))
	}
	size := 1 + len(t)
	for _, row := range t {
		if len(row) > 255 {
			return blob, 0, fmt.Errorf("image: data table row has %d bytes, max is 255", len(row))
		}
		size += len(row)
	}
	if len(blob)+size > maxRegion {
		return blob, 0, fmt.Errorf("image: data region would exceed %d bytes", maxRegion)
	}

	id := uint16(len(blob))
	blob = append(blob, byte(len(t)))
	for _, row := range t {
		blob = append(blob, byte(len(row)))
	}
	for _, row := range t {
		blob = append(blob, row...)
	}
	return blob, id, nil
}

// tableLayout resolves the header of a packed table at byte offset id:
// the outer count and, for each row, the blob offset where its bytes start.
func tableLayout(blob []byte, id uint16) (outerCount int, rowStart []int, err error) {
	if int(id) >= len(blob) {
		return 0, nil, fmt.Errorf("image: data id %d out of range (len %d)", id, len(blob))
	}
	outerCount = int(blob[id])
	lenTableStart := int(id) + 1
	if lenTableStart+outerCount > len(blob) {
		return 0, nil, fmt.Errorf("image: data id %d: truncated inner-length table", id)
	}

	rowStart = make([]int, outerCount)
	cursor := lenTableStart + outerCount
	for i := 0; i < outerCount; i++ {
		rowStart[i] = cursor
		cursor += int(blob[lenTableStart+i])
	}
	if cursor > len(blob) {
		return 0, nil, fmt.Errorf("image: data id %d: truncated row data", id)
	}
	return outerCount, rowStart, nil
}

// RowLen returns the length of the (outer-1)th row (outer >= 1), or the
// outer count itself when outer == 0 — this is the LEN instruction's
// addressing rule.
func RowLen(blob []byte, id uint16, outer int) (byte, error) {
	outerCount, _, err := tableLayout(blob, id)
	if err != nil {
		return 0, err
	}
	if outer == 0 {
		return byte(outerCount), nil
	}
	rowIdx := outer - 1
	if rowIdx < 0 || rowIdx >= outerCount {
		return 0, fmt.Errorf("image: data id %d: row index %d out of range (%d rows)", id, rowIdx, outerCount)
	}
	lenTableStart := int(id) + 1
	return blob[lenTableStart+rowIdx], nil
}

// IndexByte resolves one byte of the LD addressing table: (0,0) is the
// outer count byte, (0,k) is the length byte of row k-1, (outer>=1,inner)
// is the inner-th byte of row outer-1.
func IndexByte(blob []byte, id uint16, outer, inner int) (byte, error) {
	outerCount, rowStart, err := tableLayout(blob, id)
	if err != nil {
		return 0, err
	}

	if outer == 0 {
		if inner == 0 {
			return byte(outerCount), nil
		}
		rowIdx := inner - 1
		if rowIdx < 0 || rowIdx >= outerCount {
			return 0, fmt.Errorf("image: data id %d: length index %d out of range (%d rows)", id, rowIdx, outerCount)
		}
		lenTableStart := int(id) + 1
		return blob[lenTableStart+rowIdx], nil
	}

	rowIdx := outer - 1
	if rowIdx < 0 || rowIdx >= outerCount {
		return 0, fmt.Errorf("image: data id %d: row index %d out of range (%d rows)", id, rowIdx, outerCount)
	}
	lenTableStart := int(id) + 1
	rowLen := int(blob[lenTableStart+rowIdx])
	if inner < 0 || inner >= rowLen {
		return 0, fmt.Errorf("image: data id %d: inner index %d out of range (row length %d)", id, inner, rowLen)
	}
	return blob[rowStart[rowIdx]+inner], nil
}

// AbsoluteOffset returns the byte offset within the data region of the
// byte addressed by (outer, inner), for the LD instruction's a_reg result.
func AbsoluteOffset(blob []byte, id uint16, outer, inner int) (uint16, error) {
	outerCount, rowStart, err := tableLayout(blob, id)
	if err != nil {
		return 0, err
	}
	lenTableStart := int(id) + 1

	if outer == 0 {
		if inner == 0 {
			return id, nil
		}
		rowIdx := inner - 1
		if rowIdx < 0 || rowIdx >= outerCount {
			return 0, fmt.Errorf("image: data id %d: length index %d out of range (%d rows)", id, rowIdx, outerCount)
		}
		return uint16(lenTableStart + rowIdx), nil
	}

	rowIdx := outer - 1
	if rowIdx < 0 || rowIdx >= outerCount {
		return 0, fmt.Errorf("image: data id %d: row index %d out of range (%d rows)", id, rowIdx, outerCount)
	}
	rowLen := int(blob[lenTableStart+rowIdx])
	if inner < 0 || inner >= rowLen {
		return 0, fmt.Errorf("image: data id %d: inner index %d out of range (row length %d)", id, inner, rowLen)
	}
	return uint16(rowStart[rowIdx] + inner), nil
}
