package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	m "taptree.dev/pkg/taptree/internal/model"
)

// ReportStore persists rendered output per input stream.
type ReportStore interface {
	// SaveReport writes content for the stream named source into dir,
	// replacing the source extension with ext. It returns the written path.
	SaveReport(dir m.Path, source m.Path, ext string, content []byte) (m.Path, error)
}

// LocalReportStore writes reports to the local filesystem.
type LocalReportStore struct{}

// NewReportStore constructs a LocalReportStore.
func NewReportStore() *LocalReportStore {
	return &LocalReportStore{}
}

// SaveReport writes one report file, creating dir when needed.
func (s *LocalReportStore) SaveReport(dir m.Path, source m.Path, ext string, content []byte) (m.Path, error) {
	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	target := filepath.Join(string(dir), reportName(source)+ext)
	if err := os.WriteFile(target, content, 0o600); err != nil {
		return "", fmt.Errorf("write report %s: %w", target, err)
	}

	return m.Path(target), nil
}

func reportName(source m.Path) string {
	if source == m.Stdin {
		return "stdin"
	}

	base := filepath.Base(string(source))

	return strings.TrimSuffix(base, filepath.Ext(base))
}
