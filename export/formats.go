// Package export writes a datacard in the fitter's text syntax or as
// structured data for review.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/c360studio/hggcard/datacard"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatText produces the combine datacard.
	FormatText Format = "text"

	// FormatXLSX produces a workbook with one sheet per nuisance group.
	FormatXLSX Format = "xlsx"

	// FormatJSON produces the structured card.
	FormatJSON Format = "json"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatText: {
		Name:        FormatText,
		MIMEType:    "text/plain",
		Extension:   ".txt",
		Description: "Datacard - combine text syntax",
	},
	FormatXLSX: {
		Name:        FormatXLSX,
		MIMEType:    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Extension:   ".xlsx",
		Description: "Workbook - one sheet per nuisance group",
	},
	FormatJSON: {
		Name:        FormatJSON,
		MIMEType:    "application/json",
		Extension:   ".json",
		Description: "JSON - structured datacard",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// Formats lists the registered format names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(FormatRegistry))
	for f := range FormatRegistry {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// FormatForPath picks a format from the file extension. Unknown extensions
// are written as text, since datacards are commonly named freely.
func FormatForPath(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	for _, info := range FormatRegistry {
		if info.Extension == ext {
			return info.Name
		}
	}
	return FormatText
}

// Export serializes card to w in the given format.
func Export(card *datacard.Card, format Format, w io.Writer) error {
	switch format {
	case FormatText:
		_, err := card.WriteTo(w)
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(card)
	case FormatXLSX:
		return writeXLSX(card, w)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteFile exports card to path, choosing the format from the extension.
func WriteFile(card *datacard.Card, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Export(card, FormatForPath(path), f); err != nil {
		f.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	return f.Close()
}
