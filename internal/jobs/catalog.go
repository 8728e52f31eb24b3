package jobs

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/job-agent/internal/schemas"
	"github.com/jonathan/job-agent/internal/types"
)

//go:embed catalog.json
var defaultCatalog []byte

type catalogFile struct {
	Postings []types.Posting `json:"postings" yaml:"postings"`
}

// DefaultCatalog returns the built-in postings
func DefaultCatalog() ([]types.Posting, error) {
	return parseCatalog(defaultCatalog, false)
}

// LoadCatalog reads a catalog file in JSON (.json) or YAML (.yaml, .yml) and
// validates it against the catalog schema.
func LoadCatalog(path string) ([]types.Posting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read catalog %s", path)
	}

	var isYAML bool
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
	case ".yaml", ".yml":
		isYAML = true
	default:
		return nil, errors.Newf("unsupported catalog format %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}

	postings, err := parseCatalog(data, isYAML)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %s", path)
	}
	return postings, nil
}

func parseCatalog(data []byte, isYAML bool) ([]types.Posting, error) {
	var doc any
	if isYAML {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(err, "failed to parse catalog YAML")
		}
	} else {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(err, "failed to parse catalog JSON")
		}
	}

	if err := schemas.Validate(schemas.CatalogSchema, doc); err != nil {
		return nil, err
	}

	var file catalogFile
	if isYAML {
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, errors.Wrap(err, "failed to decode catalog YAML")
		}
	} else {
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, errors.Wrap(err, "failed to decode catalog JSON")
		}
	}
	return file.Postings, nil
}
