// Package extract turns uploaded tender documents into plain text.
package extract

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrCorruptDocument   = errors.New("document could not be read")
)

// Supported MIME types
const (
	MimePDF  = "application/pdf"
	MimeDOC  = "application/msword"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"
)

var extensionTypes = map[string]string{
	".pdf":  MimePDF,
	".doc":  MimeDOC,
	".docx": MimeDOCX,
	".txt":  MimeText,
}

// Supported reports whether Text can handle mimeType
func Supported(mimeType string) bool {
	switch baseType(mimeType) {
	case MimePDF, MimeDOC, MimeDOCX, MimeText:
		return true
	}
	return false
}

// DetectMIME sniffs the content type of data. Generic containers (zip, OLE)
// are resolved through the file extension.
func DetectMIME(data []byte, filename string) string {
	m := mimetype.Detect(data)
	switch {
	case m.Is(MimePDF):
		return MimePDF
	case m.Is(MimeDOCX):
		return MimeDOCX
	case m.Is(MimeDOC):
		return MimeDOC
	case m.Is(MimeText):
		return MimeText
	case m.Is("application/zip"):
		if strings.EqualFold(filepath.Ext(filename), ".docx") {
			return MimeDOCX
		}
	case m.Is("application/x-ole-storage"):
		if strings.EqualFold(filepath.Ext(filename), ".doc") {
			return MimeDOC
		}
	}
	return baseType(m.String())
}

// Text extracts the plain text of a document of the given MIME type
func Text(data []byte, mimeType string) (string, error) {
	var (
		text string
		err  error
	)
	switch baseType(mimeType) {
	case MimePDF:
		text, err = pdfText(data)
	case MimeDOCX:
		text, err = docxText(data)
	case MimeDOC:
		text, err = docText(data)
	case MimeText:
		text = string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}
	if err != nil {
		return "", err
	}
	return normalize(text), nil
}

func pdfText(data []byte) (text string, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: pdf: %v", ErrCorruptDocument, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: pdf: %v", ErrCorruptDocument, err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: pdf: %v", ErrCorruptDocument, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("%w: pdf: %v", ErrCorruptDocument, err)
	}
	return buf.String(), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: docx: %v", ErrCorruptDocument, err)
	}
	defer doc.Close()
	return wordprocessingText(strings.NewReader(doc.Editable().GetContent()))
}

// wordprocessingText collects the w:t runs of a WordprocessingML body,
// one line per paragraph
func wordprocessingText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: docx: %v", ErrCorruptDocument, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

// normalize makes text valid UTF-8 with \n line endings and no trailing blanks
func normalize(text string) string {
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func baseType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
