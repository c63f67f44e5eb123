package format

import "fmt"

// Cell is a parsed view over a single REGF cell: a 4-byte signed size field
// followed by the cell's payload. A negative size means the cell is
// allocated (in use); a positive size means it is free.
type Cell struct {
	Allocated bool
	Size      int // absolute size in bytes, including the 4-byte size field
	Payload   []byte
}

// ParseCell reads the cell at byte offset off within data (the bin-relative
// or file-relative byte slice the caller is working in; cellstore is
// responsible for translating hive cell offsets into slice offsets before
// calling this). The returned Payload aliases data and is only valid for as
// long as data itself is valid.
func ParseCell(data []byte, off int) (Cell, error) {
	raw, err := CheckedReadI32(data, off)
	if err != nil {
		return Cell{}, fmt.Errorf("cell size at 0x%X: %w", off, err)
	}

	var c Cell
	if raw < 0 {
		c.Allocated = true
		c.Size = int(-raw)
	} else {
		c.Allocated = false
		c.Size = int(raw)
	}
	if c.Size < CellSizeFieldSize {
		return Cell{}, fmt.Errorf("cell at 0x%X: size %d smaller than header: %w", off, c.Size, ErrTruncated)
	}

	payload, err := CheckedSlice(data, off+CellSizeFieldSize, c.Size-CellSizeFieldSize)
	if err != nil {
		return Cell{}, fmt.Errorf("cell payload at 0x%X: %w", off, err)
	}
	c.Payload = payload
	return c, nil
}
