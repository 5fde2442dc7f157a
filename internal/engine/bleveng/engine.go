// Package bleveng implements the engine interfaces on top of Bleve v2.
//
// One physical index is one Bleve index directory. Writer exclusivity is
// enforced with a cross-process flock inside the directory, acquired with a
// bounded wait the way Lucene-style engines time out on their write lock.
package bleveng

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/trailstore/trailstore/internal/engine"
	trerrors "github.com/trailstore/trailstore/internal/errors"
)

const (
	// AnalyzerName is the name of the analyzer used for audit records.
	AnalyzerName = "audit_analyzer"

	// lockFileName is the write-lock file kept inside each index directory.
	lockFileName = "trailstore.write.lock"

	// metaFileName is Bleve's index metadata file; its presence marks an
	// initialized index.
	metaFileName = "index_meta.json"
)

// Engine is the Bleve-backed implementation of engine.Engine.
type Engine struct{}

// New creates a Bleve engine.
func New() *Engine {
	return &Engine{}
}

// directory is a validated handle on one index location.
type directory struct {
	path string
}

func (d *directory) Path() string { return d.path }

// Close releases the directory handle. The path itself holds no open
// resources; writers and readers manage their own.
func (d *directory) Close() error { return nil }

// OpenDirectory validates (creating if necessary) the index location at path.
// An existing index that fails the integrity check is reported as corrupt
// rather than silently cleared; recovery is an operator decision.
func (e *Engine) OpenDirectory(path string) (engine.Directory, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, trerrors.OpenError(fmt.Sprintf("cannot create index directory %s", path), err)
	}

	if err := validateIndexIntegrity(path); err != nil {
		return nil, trerrors.CorruptIndexError(fmt.Sprintf("index at %s is corrupt", path), err).
			WithDetail("path", path)
	}

	return &directory{path: path}, nil
}

// analyzer carries the index mapping built around the audit analyzer.
type analyzer struct {
	mapping *mapping.IndexMappingImpl
}

func (a *analyzer) Name() string { return AnalyzerName }

// Close releases the analyzer. Bleve analyzers hold no OS resources.
func (a *analyzer) Close() error { return nil }

// NewAnalyzer builds the analyzer configuration used by writers: unicode
// tokenization with lowercasing, set as the default analyzer of the mapping.
func (e *Engine) NewAnalyzer() (engine.Analyzer, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(AnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": unicode.Name,
		"token_filters": []string{
			lowercase.Name,
		},
	})
	if err != nil {
		return nil, trerrors.InternalError("failed to build audit analyzer", err)
	}
	indexMapping.DefaultAnalyzer = AnalyzerName

	return &analyzer{mapping: indexMapping}, nil
}

// validateIndexIntegrity checks whether an existing Bleve index looks sound
// before opening it. A directory with no metadata file is fine: the index has
// simply not been created yet.
func validateIndexIntegrity(path string) error {
	metaPath := filepath.Join(path, metaFileName)
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", metaFileName, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty", metaFileName)
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", metaFileName, err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("%s is not valid JSON: %w", metaFileName, err)
	}

	return nil
}

// indexExists reports whether a Bleve index has been initialized at path.
func indexExists(path string) bool {
	_, err := os.Stat(filepath.Join(path, metaFileName))
	return err == nil
}

// isCorruptionError checks if an error indicates Bleve index corruption.
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	if err == bleve.ErrorIndexMetaCorrupt {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unexpected end of JSON") ||
		strings.Contains(errStr, "error parsing mapping JSON") ||
		strings.Contains(errStr, "failed to load segment") ||
		strings.Contains(errStr, "error opening bolt")
}

var _ engine.Engine = (*Engine)(nil)
