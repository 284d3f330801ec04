// Package export renders catalog objects as Markdown documents with
// YAML frontmatter, one file per object.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"catalog/internal/config"
	"catalog/internal/fileutil"
	"catalog/internal/logging"
	"catalog/internal/media"
	"catalog/internal/services"
	"catalog/internal/textutil"
)

// Markdown writes one document per object into the export directory.
type Markdown struct {
	dir    string
	logger *slog.Logger
}

// NewMarkdown builds an exporter targeting the configured export
// directory.
func NewMarkdown(cfg *config.Config, logger *slog.Logger) *Markdown {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Markdown{
		dir:    cfg.Paths.ExportDir,
		logger: logging.NewComponentLogger(logger, "export"),
	}
}

// Export renders the entry for an object and writes it atomically,
// returning the path of the written document.
func (m *Markdown) Export(object media.Object, entry media.Entry) (string, error) {
	if strings.TrimSpace(entry.Text) == "" {
		return "", services.Wrap(services.ErrValidation, "export", "render", "entry text is empty", nil)
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrUnavailable, "export", "render", "create export directory", err)
	}

	name := textutil.SanitizeFileName(object.Title)
	if name == "" {
		name = object.ID
	}
	path := filepath.Join(m.dir, name+".md")

	document := Render(object, entry)
	if err := fileutil.WriteFileAtomic(path, []byte(document), 0o644); err != nil {
		return "", services.Wrap(services.ErrUnavailable, "export", "render", "write document", err)
	}

	m.logger.Info("wrote document",
		logging.String(logging.FieldObjectID, object.ID),
		logging.String("path", path))
	return path, nil
}

// Render produces the Markdown document for an object and entry.
func Render(object media.Object, entry media.Entry) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "id: %s\n", object.ID)
	fmt.Fprintf(&b, "title: %q\n", object.Title)
	fmt.Fprintf(&b, "created: %s\n", object.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "variant: %s\n", entry.Variant)
	b.WriteString("tags:\n")
	fmt.Fprintf(&b, "  - media/%s\n", object.Type)
	for _, tag := range object.Tags {
		fmt.Fprintf(&b, "  - %s\n", tag)
	}
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\n", object.Title)
	b.WriteString(strings.TrimRight(entry.Text, "\n"))
	b.WriteString("\n")
	return b.String()
}
