package regfile

import (
	"bytes"
	"fmt"
	"io"

	"github.com/regfkit/keyitem/internal/format"
)

// hbin is a zero-copy view over one HBIN's header + payload bytes.
type hbin struct {
	data []byte // full hbin bytes, starting at its header
	off  uint32 // hbins-relative offset (0 == right after the base block)
	size uint32
}

func (h hbin) payload() []byte { return h.data[format.HBINHeaderSize:] }

// parseHBINAt parses the hbin whose header begins at hbinsData[relOff:].
func parseHBINAt(hbinsData []byte, relOff uint32) (hbin, error) {
	hdr, err := format.CheckedSlice(hbinsData, int(relOff), format.HBINHeaderSize)
	if err != nil {
		return hbin{}, fmt.Errorf("hbin header at 0x%X: %w", relOff, err)
	}
	if !bytes.Equal(hdr[:4], []byte(format.HBINMagic)) {
		return hbin{}, fmt.Errorf("hbin at 0x%X: %w", relOff, format.ErrBadMagic)
	}
	size := format.U32LEUnchecked(hdr, format.HBINSizeOff)
	if size == 0 || size%format.HBINAlignment != 0 {
		return hbin{}, fmt.Errorf("hbin at 0x%X: bad size 0x%X", relOff, size)
	}
	full, err := format.CheckedSlice(hbinsData, int(relOff), int(size))
	if err != nil {
		return hbin{}, fmt.Errorf("hbin at 0x%X: size 0x%X runs past end of file: %w", relOff, size, err)
	}
	return hbin{data: full, off: relOff, size: size}, nil
}

// binRange records one hbin's extent within the hbins-relative address
// space, so a cell offset can be mapped to the hbin (and hence the
// underlying byte slice) that contains it by a binary search.
type binRange struct {
	start, end uint32 // [start, end) in hbins-relative bytes
	payload    []byte // the hbin's payload, i.e. hbinsData[start:end]
}

// buildBinTable walks every hbin in hbinsData from offset 0, stopping at the
// first non-"hbin" signature (trailing slack) or end of buffer, and returns
// a sorted table of bin ranges.
func buildBinTable(hbinsData []byte) ([]binRange, error) {
	var table []binRange
	var off uint32
	for {
		if int(off)+format.HBINHeaderSize > len(hbinsData) {
			break
		}
		if !bytes.Equal(hbinsData[off:off+4], []byte(format.HBINMagic)) {
			break
		}
		hb, err := parseHBINAt(hbinsData, off)
		if err != nil {
			return nil, err
		}
		table = append(table, binRange{
			start:   hb.off + format.HBINHeaderSize,
			end:     hb.off + hb.size,
			payload: hb.payload(),
		})
		next := hb.off + hb.size
		if next <= off {
			return nil, fmt.Errorf("hbin at 0x%X: non-increasing next offset", off)
		}
		off = next
	}
	if len(table) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	return table, nil
}

// find returns the byte slice of the hbin payload that covers the
// hbins-relative offset rel, and the slice index within that payload where
// rel begins, using binary search over the sorted table.
func (t binTable) find(rel uint32) ([]byte, int, bool) {
	ranges := t.ranges
	lo, hi := 0, len(ranges)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case rel < ranges[mid].start:
			hi = mid
		case rel >= ranges[mid].end:
			lo = mid + 1
		default:
			return ranges[mid].payload, int(rel - ranges[mid].start), true
		}
	}
	return nil, 0, false
}

// binTable is the sorted, searchable form of the hbin layout for one hive.
type binTable struct {
	ranges []binRange
}

func newBinTable(hbinsData []byte) (binTable, error) {
	ranges, err := buildBinTable(hbinsData)
	if err != nil {
		return binTable{}, err
	}
	return binTable{ranges: ranges}, nil
}
