// Package export writes a catalog as delimiter-separated UTF-8 text for
// spreadsheet tools. Columns are year, month, month_name, category, url and
// collection_timestamp (RFC 3339, UTC).
package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/constants"
	"github.com/agentstation/periodmap/pkg/errors"
	"github.com/agentstation/periodmap/pkg/period"
)

// Header is the first row of every export.
var Header = []string{"year", "month", "month_name", "category", "url", "collection_timestamp"}

// bom is the UTF-8 byte order mark some spreadsheet tools need to detect the
// encoding.
const bom = "\ufeff"

type options struct {
	delimiter rune
	bom       bool
}

// Option configures an export.
type Option func(*options)

// WithDelimiter sets the column delimiter.
func WithDelimiter(d rune) Option {
	return func(o *options) {
		o.delimiter = d
	}
}

// WithBOM prefixes the output with a UTF-8 byte order mark.
func WithBOM(enabled bool) Option {
	return func(o *options) {
		o.bom = enabled
	}
}

// Write encodes catalog to w in catalog order.
func Write(w io.Writer, catalog *catalogs.Catalog, opts ...Option) error {
	o := &options{delimiter: constants.ExportDelimiter}
	for _, opt := range opts {
		opt(o)
	}

	if o.bom {
		if _, err := io.WriteString(w, bom); err != nil {
			return errors.WrapIO("write", "export", err)
		}
	}

	cw := csv.NewWriter(w)
	cw.Comma = o.delimiter
	if err := cw.Write(Header); err != nil {
		return errors.WrapIO("write", "export", err)
	}
	for _, l := range catalog.Links() {
		if err := cw.Write(Record(l)); err != nil {
			return errors.WrapIO("write", "export", err)
		}
	}
	cw.Flush()
	return errors.WrapIO("write", "export", cw.Error())
}

// Record returns the columns of one link.
func Record(l catalogs.DiscoveredLink) []string {
	collected := ""
	if !l.DiscoveredAt.IsZero() {
		collected = l.DiscoveredAt.UTC().Format(constants.TimeFormatExport)
	}
	return []string{
		strconv.Itoa(l.Year()),
		strconv.Itoa(int(l.Month())),
		period.MonthName(l.Month()),
		l.Category.String(),
		l.URL,
		collected,
	}
}

// WriteFile writes the export to path, replacing it atomically.
func WriteFile(path string, catalog *catalogs.Catalog, opts ...Option) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.WrapIO("create", "temp file", err)
	}
	tempPath := tempFile.Name()

	if err := Write(tempFile, catalog, opts...); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return err
	}
	if err := tempFile.Chmod(constants.FilePermissions); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
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
