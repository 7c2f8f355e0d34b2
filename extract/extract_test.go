package extract

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := []struct{ name, content string }{
		{"[Content_Types].xml", `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		{"word/_rels/document.xml.rels", `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"/>`},
		{"word/document.xml", `<?xml version="1.0" encoding="UTF-8"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`},
	}
	for _, f := range files {
		w, err := zw.Create(f.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestText_Docx(t *testing.T) {
	data := buildDocx(t,
		`<w:p><w:r><w:t>KvK-uittreksel</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve"> 14-03-2024</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>UEA ondertekend</w:t></w:r></w:p>`)

	text, err := Text(data, MimeDOCX)
	require.NoError(t, err)
	assert.Equal(t, "KvK-uittreksel\t 14-03-2024\nUEA ondertekend", text)
}

func TestText_DocxWithoutBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = Text(buf.Bytes(), MimeDOCX)
	assert.ErrorIs(t, err, ErrCorruptDocument)
}

func TestText_PlainText(t *testing.T) {
	text, err := Text([]byte("\xef\xbb\xbfRegel 1\r\nRegel 2   \r\n\r\n"), "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "Regel 1\nRegel 2", text)
}

type wordPiece struct {
	data       []byte
	compressed bool
}

func ansi(b ...byte) wordPiece { return wordPiece{data: b, compressed: true} }

func unicode16(s string) wordPiece {
	var out []byte
	for _, u := range utf16.Encode([]rune(s)) {
		out = binary.LittleEndian.AppendUint16(out, u)
	}
	return wordPiece{data: out}
}

// wordStreams lays out a WordDocument stream holding the given pieces and a
// table stream with the matching Clx
func wordStreams(t *testing.T, pieces ...wordPiece) (word, table []byte) {
	t.Helper()
	word = make([]byte, 0x0200)
	binary.LittleEndian.PutUint16(word, fibIdent)

	var (
		cps  []uint32
		pcds []byte
		cp   uint32
	)
	for _, p := range pieces {
		cps = append(cps, cp)
		fc := uint32(len(word))
		count := uint32(len(p.data))
		if p.compressed {
			fc = fc*2 | pieceCompressed
		} else {
			count /= 2
		}
		pcd := make([]byte, 8)
		binary.LittleEndian.PutUint32(pcd[2:], fc)
		pcds = append(pcds, pcd...)
		word = append(word, p.data...)
		cp += count
	}
	cps = append(cps, cp)

	// A property modifier precedes the piece table
	table = []byte{0xff, 0xff, 0x01, 0x02, 0x00, 0xaa, 0xbb, 0x02}
	plc := make([]byte, 0, 4*len(cps)+len(pcds))
	for _, c := range cps {
		plc = binary.LittleEndian.AppendUint32(plc, c)
	}
	plc = append(plc, pcds...)
	table = binary.LittleEndian.AppendUint32(table, uint32(len(plc)))
	table = append(table, plc...)

	binary.LittleEndian.PutUint32(word[fibFcClx:], 2)
	binary.LittleEndian.PutUint32(word[fibLcbClx:], uint32(len(table)-2))
	return word, table
}

func TestPieceText(t *testing.T) {
	word, table := wordStreams(t,
		ansi([]byte("Plan van aanpak\r")...),
		unicode16("Prijsblad \u20ac 12.500\x07totaal\r"),
	)

	text, err := pieceText(word, table)
	require.NoError(t, err)
	assert.Equal(t, "Plan van aanpak\nPrijsblad \u20ac 12.500\ttotaal\n", text)
}

func TestPieceText_Windows1252(t *testing.T) {
	word, table := wordStreams(t, ansi('C', 'a', 'f', 0xe9, ' ', 0x80, '5', '\r'))

	text, err := pieceText(word, table)
	require.NoError(t, err)
	assert.Equal(t, "Caf\u00e9 \u20ac5\n", text)
}

func TestPieceText_Invalid(t *testing.T) {
	word, table := wordStreams(t, ansi([]byte("Inschrijving\r")...))

	t.Run("clx outside table", func(t *testing.T) {
		w := bytes.Clone(word)
		binary.LittleEndian.PutUint32(w[fibLcbClx:], uint32(len(table)))
		_, err := pieceText(w, table)
		assert.ErrorIs(t, err, errPieceTable)
	})

	t.Run("missing piece table", func(t *testing.T) {
		tb := bytes.Clone(table)
		tb[7] = 0x03
		_, err := pieceText(word, tb)
		assert.ErrorIs(t, err, errPieceTable)
	})

	t.Run("piece outside stream", func(t *testing.T) {
		_, err := pieceText(word[:0x0200+4], table)
		assert.ErrorIs(t, err, errPieceTable)
	})
}

func TestText_LegacyDocNotOLE(t *testing.T) {
	data := []byte("Plan van aanpak\rPrijsblad totaal")
	_, err := Text(data, MimeDOC)
	assert.ErrorIs(t, err, ErrCorruptDocument)
}

func TestText_BrokenPDF(t *testing.T) {
	_, err := Text([]byte("%PDF-1.4\nnot really a pdf"), MimePDF)
	assert.ErrorIs(t, err, ErrCorruptDocument)
}

func TestText_Unsupported(t *testing.T) {
	_, err := Text([]byte{0x89, 'P', 'N', 'G'}, "image/png")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDetectMIME(t *testing.T) {
	docx := buildDocx(t, `<w:p><w:r><w:t>x</w:t></w:r></w:p>`)

	tests := []struct {
		name     string
		data     []byte
		filename string
		want     string
	}{
		{"pdf", []byte("%PDF-1.7\n%âãÏÓ\n"), "bestek.pdf", MimePDF},
		{"text", []byte("Dit is het bestek voor de levering."), "bestek.txt", MimeText},
		{"docx", docx, "inschrijving.docx", MimeDOCX},
		{"binary", []byte{0x00, 0x01, 0x02, 0x03, 0xff, 0xfe}, "data.bin", "application/octet-stream"},
		{"binary claiming text", []byte{0x00, 0x01, 0x02, 0x03, 0xff, 0xfe}, "data.txt", "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMIME(tt.data, tt.filename))
		})
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("text/plain; charset=utf-8"))
	assert.True(t, Supported(MimeDOCX))
	assert.False(t, Supported("application/zip"))
}

func TestValidateFilename(t *testing.T) {
	valid := []string{"bestek.pdf", "Inschrijving 2024 (def).docx", "notities.txt"}
	for _, name := range valid {
		assert.NoError(t, ValidateFilename(name), name)
	}

	invalid := []string{
		"",
		"bestek\x00.pdf",
		"../bestek.pdf",
		"map/bestek.pdf",
		`map\bestek.pdf`,
		"...",
		"bestek?.pdf",
		"CON",
		"lpt1.txt",
		"setup.exe",
		"script.JS",
		strings.Repeat("a", 252) + ".pdf",
	}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateFilename(name), ErrInvalidFilename, name)
	}
}

func TestAllowedExtension(t *testing.T) {
	assert.True(t, AllowedExtension("a.PDF"))
	assert.True(t, AllowedExtension("a.docx"))
	assert.False(t, AllowedExtension("a.odt"))
	assert.False(t, AllowedExtension("noext"))
}
