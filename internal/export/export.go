// Package export serializes harvested reviews to disk.
package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reviews-cli/internal/model"
)

// Format selects the output serialization.
type Format string

const (
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
)

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatNDJSON:
		return FormatNDJSON, nil
	default:
		return "", eris.Errorf("export: unknown format %q", s)
	}
}

// WriteJSON writes reviews as a single indented JSON array. The parent
// directory is created if missing.
func WriteJSON(reviews []model.Review, path string, indent int) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}
	if reviews == nil {
		reviews = []model.Review{}
	}

	file, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer func() { _ = file.Close() }()

	enc := json.NewEncoder(file)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	if err := enc.Encode(reviews); err != nil {
		return eris.Wrap(err, "export: encode json")
	}

	zap.L().Info("json export complete",
		zap.String("path", path),
		zap.Int("reviews", len(reviews)),
	)
	return nil
}

// WriteNDJSON writes reviews as newline-delimited JSON objects, one per line.
func WriteNDJSON(reviews []model.Review, path string) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer func() { _ = file.Close() }()

	enc := json.NewEncoder(file)
	enc.SetEscapeHTML(false)
	for _, r := range reviews {
		if err := enc.Encode(r); err != nil {
			return eris.Wrap(err, "export: encode ndjson line")
		}
	}

	zap.L().Info("ndjson export complete",
		zap.String("path", path),
		zap.Int("reviews", len(reviews)),
	)
	return nil
}

// Write dispatches to the writer for the given format.
func Write(reviews []model.Review, path string, format Format, indent int) error {
	switch format {
	case FormatNDJSON:
		return WriteNDJSON(reviews, path)
	default:
		return WriteJSON(reviews, path, indent)
	}
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir %s", dir)
	}
	return nil
}
