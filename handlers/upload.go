package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"tendercheck-backend/service"

	"github.com/gin-gonic/gin"
)

// DefaultMaxFileSize is the upload limit per file
const DefaultMaxFileSize = 5 * 1024 * 1024

// upload is a validated multipart file read into memory
type upload struct {
	Filename string
	Data     []byte
}

// readUpload reads form file field, enforcing the size limit and filename
// rules. On failure it writes the error response and returns false.
func readUpload(c *gin.Context, field string, maxSize int64) (*upload, bool) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", fmt.Sprintf("File %q is required", field))
		return nil, false
	}

	if fileHeader.Size > maxSize {
		respondError(c, http.StatusBadRequest, "FILE_TOO_LARGE",
			fmt.Sprintf("File size exceeds maximum of %d bytes", maxSize))
		return nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondInternal(c, "open upload", err)
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		respondInternal(c, "read upload", err)
		return nil, false
	}
	if int64(len(data)) > maxSize {
		respondError(c, http.StatusBadRequest, "FILE_TOO_LARGE",
			fmt.Sprintf("File size exceeds maximum of %d bytes", maxSize))
		return nil, false
	}

	return &upload{Filename: fileHeader.Filename, Data: data}, true
}

// respondDocumentError maps extraction and validation errors to 400s
func respondDocumentError(c *gin.Context, field string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidFilename):
		respondError(c, http.StatusBadRequest, "INVALID_FILENAME", fmt.Sprintf("Invalid filename for %q", field))
	case errors.Is(err, service.ErrUnsupportedFormat):
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE",
			fmt.Sprintf("File type of %q not allowed. Allowed types: PDF, DOC, DOCX, TXT", field))
	case errors.Is(err, service.ErrUnreadableDocument):
		respondError(c, http.StatusBadRequest, "UNREADABLE_FILE", fmt.Sprintf("File %q could not be read", field))
	case errors.Is(err, service.ErrInvalidKind):
		respondError(c, http.StatusBadRequest, "INVALID_KIND", "kind must be bestek, inschrijving or legal")
	default:
		respondInternal(c, "process "+field, err)
	}
}
