package extract

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
)

// File Information Block offsets in the WordDocument stream
const (
	fibIdent      = 0xA5EC
	fibFlags      = 0x000A
	fibWhichTable = 0x0200
	fibFcClx      = 0x01A2
	fibLcbClx     = 0x01A6
	fibMinSize    = 0x01AA

	pieceCompressed = 0x40000000
)

var errPieceTable = errors.New("invalid piece table")

// docText reads the main text of a legacy binary Word file. The OLE
// container holds a WordDocument stream and a table stream whose piece
// table maps character positions to byte ranges.
func docText(data []byte) (string, error) {
	r, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: doc: %v", ErrCorruptDocument, err)
	}

	streams := make(map[string][]byte)
	for f, err := r.Next(); err == nil; f, err = r.Next() {
		switch f.Name {
		case "WordDocument", "0Table", "1Table":
			buf, err := io.ReadAll(f)
			if err != nil {
				return "", fmt.Errorf("%w: doc: %s: %v", ErrCorruptDocument, f.Name, err)
			}
			streams[f.Name] = buf
		}
	}

	word, ok := streams["WordDocument"]
	if !ok {
		return "", fmt.Errorf("%w: doc: WordDocument stream not found", ErrCorruptDocument)
	}
	if len(word) < fibMinSize || binary.LittleEndian.Uint16(word) != fibIdent {
		return "", fmt.Errorf("%w: doc: invalid file information block", ErrCorruptDocument)
	}

	tableName := "0Table"
	if binary.LittleEndian.Uint16(word[fibFlags:])&fibWhichTable != 0 {
		tableName = "1Table"
	}
	table, ok := streams[tableName]
	if !ok {
		return "", fmt.Errorf("%w: doc: %s stream not found", ErrCorruptDocument, tableName)
	}

	text, err := pieceText(word, table)
	if err != nil {
		return "", fmt.Errorf("%w: doc: %v", ErrCorruptDocument, err)
	}
	return text, nil
}

// pieceText walks the Clx of table and concatenates the text pieces it
// points to in word
func pieceText(word, table []byte) (string, error) {
	fcClx := binary.LittleEndian.Uint32(word[fibFcClx:])
	lcbClx := binary.LittleEndian.Uint32(word[fibLcbClx:])
	if lcbClx == 0 || uint64(fcClx)+uint64(lcbClx) > uint64(len(table)) {
		return "", errPieceTable
	}
	clx := table[fcClx : fcClx+lcbClx]

	// Skip property modifiers
	for len(clx) > 0 && clx[0] == 0x01 {
		if len(clx) < 3 {
			return "", errPieceTable
		}
		cb := int(binary.LittleEndian.Uint16(clx[1:]))
		if len(clx) < 3+cb {
			return "", errPieceTable
		}
		clx = clx[3+cb:]
	}
	if len(clx) < 5 || clx[0] != 0x02 {
		return "", errPieceTable
	}
	lcb := binary.LittleEndian.Uint32(clx[1:])
	plc := clx[5:]
	if lcb < 16 || uint64(lcb) > uint64(len(plc)) || (lcb-4)%12 != 0 {
		return "", errPieceTable
	}
	plc = plc[:lcb]

	// n+1 character positions followed by n 8-byte piece descriptors
	n := int(lcb-4) / 12
	pcds := plc[4*(n+1):]
	var sb strings.Builder
	for i := 0; i < n; i++ {
		cpStart := binary.LittleEndian.Uint32(plc[4*i:])
		cpEnd := binary.LittleEndian.Uint32(plc[4*(i+1):])
		if cpEnd < cpStart {
			return "", errPieceTable
		}
		count := int(cpEnd - cpStart)
		fc := binary.LittleEndian.Uint32(pcds[8*i+2:])

		if fc&pieceCompressed != 0 {
			off := int((fc &^ pieceCompressed) / 2)
			if off+count > len(word) {
				return "", errPieceTable
			}
			decoded, err := charmap.Windows1252.NewDecoder().Bytes(word[off : off+count])
			if err != nil {
				return "", err
			}
			sb.Write(decoded)
			continue
		}

		off := int(fc)
		if off+2*count > len(word) {
			return "", errPieceTable
		}
		units := make([]uint16, count)
		for j := range units {
			units[j] = binary.LittleEndian.Uint16(word[off+2*j:])
		}
		sb.WriteString(string(utf16.Decode(units)))
	}
	return wordControls.Replace(sb.String()), nil
}

// Word marks paragraphs with \r, cells with 0x07 and fields with 0x13-0x15
var wordControls = strings.NewReplacer(
	"\r", "\n",
	"\x07", "\t",
	"\x0b", "\n",
	"\x0c", "\n",
	"\x13", "",
	"\x14", "",
	"\x15", "",
)
