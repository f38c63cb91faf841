package bufz

import (
	"fmt"

	"github.com/valyala/bytebufferpool"
)

// defaultHexColumns is the bytes-per-line fallback for hex dumps.
const defaultHexColumns = 16

// formatHexLines renders data as offset/hex/ASCII lines. startOffset is
// the absolute offset of data[0] within the owning store, so printed
// offsets line up with Seek positions. Shared by FIFO.HexDump and
// SharedFIFO.HexDump so both produce identical formatting. No trailing
// newline.
func formatHexLines(data []byte, startOffset, columns int) string {
	if columns <= 0 {
		columns = defaultHexColumns
	}

	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)

	for i := 0; i < len(data); i += columns {
		if i > 0 {
			_ = bb.WriteByte('\n')
		}

		lineEnd := i + columns
		if lineEnd > len(data) {
			lineEnd = len(data)
		}

		fmt.Fprintf(bb, "%08X: ", startOffset+i)

		for j := i; j < i+columns; j++ {
			if j < lineEnd {
				fmt.Fprintf(bb, "%02X ", data[j])
			} else {
				_, _ = bb.WriteString("   ")
			}
		}

		_, _ = bb.WriteString("  ")

		for j := i; j < lineEnd; j++ {
			c := data[j]
			if c >= 0x20 && c <= 0x7e {
				_ = bb.WriteByte(c)
			} else {
				_ = bb.WriteByte('.')
			}
		}
	}

	return bb.String()
}
