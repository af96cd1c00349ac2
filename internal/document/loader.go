package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Loader reads supported notes files from a folder.
type Loader struct {
	// SkipHidden drops dotfiles during folder scans.
	SkipHidden bool
}

func NewLoader() *Loader {
	return &Loader{SkipHidden: true}
}

// LoadFolder loads every supported file directly inside dir. Subdirectories
// and unsupported extensions are skipped, matching the ingestion contract:
// the notes folder is flat.
func (l *Loader) LoadFolder(dir string) ([]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read notes folder: %w", err)
	}

	var docs []*Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if l.SkipHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := formatForFile(name); !ok {
			continue
		}

		doc, err := l.LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// LoadFile loads a single notes file, dispatching on its extension.
func (l *Loader) LoadFile(path string) (*Document, error) {
	name := filepath.Base(path)
	format, ok := formatForFile(name)
	if !ok {
		return nil, fmt.Errorf("unsupported file type: %s", name)
	}

	var text string
	var err error
	switch format {
	case FormatPDF:
		text, err = extractPDF(path)
	case FormatHTML:
		text, err = extractHTML(path)
	default:
		text, err = extractText(path)
	}
	if err != nil {
		return nil, err
	}

	return &Document{
		ID:     name,
		Path:   path,
		Format: format,
		Text:   text,
		Metadata: map[string]string{
			"source": name,
			"path":   path,
		},
	}, nil
}

func extractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func formatForFile(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return FormatTXT, true
	case ".md", ".markdown":
		return FormatMD, true
	case ".pdf":
		return FormatPDF, true
	case ".html", ".htm":
		return FormatHTML, true
	}
	return "", false
}
