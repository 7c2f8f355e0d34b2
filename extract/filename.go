package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrInvalidFilename is returned for names that are unsafe to store or serve
var ErrInvalidFilename = errors.New("invalid filename")

const maxFilenameLen = 255

var (
	reservedName     = regexp.MustCompile(`(?i)^(con|prn|aux|nul|com[1-9]|lpt[1-9])$`)
	forbiddenChars   = regexp.MustCompile(`[<>:"|?*]`)
	executableSuffix = regexp.MustCompile(`(?i)\.(exe|bat|cmd|scr|pif|com|vbs|js|jar|app|deb|rpm)$`)
	onlyDots         = regexp.MustCompile(`^\.+$`)
)

// ValidateFilename rejects client supplied names that could traverse paths,
// address devices or look executable
func ValidateFilename(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty name", ErrInvalidFilename)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: contains a null byte", ErrInvalidFilename)
	case len(name) > maxFilenameLen:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidFilename, maxFilenameLen)
	case strings.Contains(name, "..") || strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: path elements are not allowed", ErrInvalidFilename)
	case onlyDots.MatchString(name), forbiddenChars.MatchString(name):
		return fmt.Errorf("%w: forbidden characters", ErrInvalidFilename)
	case reservedName.MatchString(strings.TrimSuffix(name, filepath.Ext(name))):
		return fmt.Errorf("%w: reserved device name", ErrInvalidFilename)
	case executableSuffix.MatchString(name):
		return fmt.Errorf("%w: executable file type", ErrInvalidFilename)
	}
	return nil
}

// AllowedExtension reports whether the name ends in .pdf, .doc, .docx or .txt
func AllowedExtension(name string) bool {
	_, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]
	return ok
}
