package knownperiods

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/constants"
	"github.com/agentstation/periodmap/pkg/errors"
	"github.com/agentstation/periodmap/pkg/period"
)

// Format is the on-disk encoding of the cache file.
type Format string

const (
	// FormatYAML is the default encoding.
	FormatYAML Format = "yaml"
	// FormatJSON is used for paths ending in .json.
	FormatJSON Format = "json"
)

// FormatFor returns the format implied by the file extension of path.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// document is the file layout: one key per category, each a sorted list of
// {year, month}.
type document map[string][]period.Period

func encode(k Known, format Format) ([]byte, error) {
	doc := make(document, len(k))
	for c, ps := range k.normalized() {
		doc[c.String()] = ps
	}

	opts := []yaml.EncodeOption{yaml.Indent(2), yaml.IndentSequence(false)}
	if format == FormatJSON {
		opts = append(opts, yaml.JSON())
	}
	data, err := yaml.MarshalWithOptions(doc, opts...)
	if err != nil {
		return nil, errors.WrapParse(string(format), "known periods", err)
	}
	return data, nil
}

// decode reads a cache file. JSON is valid YAML, so one decoder serves both.
func decode(data []byte, path string) (Known, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse(string(FormatFor(path)), path, err)
	}

	k := make(Known, len(doc))
	for tag, ps := range doc {
		c, err := catalogs.ParseCategory(tag)
		if err != nil {
			return nil, errors.NewParseError(string(FormatFor(path)), path, "invalid category "+tag, err)
		}
		for _, p := range ps {
			if !p.Valid() {
				return nil, errors.NewParseError(string(FormatFor(path)), path, "invalid period "+p.String(), nil)
			}
		}
		k.add(c, ps...)
	}
	return k, nil
}

// writeAtomic replaces path with data through a temp file in the same
// directory, so readers never observe a partial write.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.WrapIO("create", "temp file", err)
	}
	tempPath := tempFile.Name()
	cleanup := func() {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
	}

	if _, err := tempFile.Write(data); err != nil {
		cleanup()
		return errors.WrapIO("write", tempPath, err)
	}
	if err := tempFile.Sync(); err != nil {
		cleanup()
		return errors.WrapIO("sync", tempPath, err)
	}
	if err := tempFile.Chmod(constants.FilePermissions); err != nil {
		cleanup()
		return errors.WrapIO("chmod", tempPath, err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("close", tempPath, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("move", path, err)
	}
	return nil
}
