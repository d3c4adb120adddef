package graph

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/roach88/tracegraph/internal/ir"
)

const exportIndent = "    "

// Records returns the state of every item, sorted by id.
func (c *Collection) Records() []ir.ItemRecord {
	ids := c.Items()
	records := make([]ir.ItemRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, c.items[id].Record())
	}
	return records
}

// MarshalExport serializes every item as one canonical JSON array.
// Identical collections produce identical bytes.
func (c *Collection) MarshalExport() ([]byte, error) {
	records := c.Records()
	list := make([]any, len(records))
	for i := range records {
		list[i] = records[i].CanonicalMap()
	}
	data, err := ir.MarshalCanonicalIndent(list, exportIndent)
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return append(data, '\n'), nil
}

// Export writes the export document to w.
func (c *Collection) Export(w io.Writer) error {
	data, err := c.MarshalExport()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// ExportFile writes the export document to path.
//
// The document is written to a temporary file in the same directory, synced
// and renamed over path, so a failed export never truncates a previous one.
func (c *Collection) ExportFile(path string) (err error) {
	data, err := c.MarshalExport()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}

	c.logger.Debug("collection exported", "path", path, "items", len(c.items))
	return nil
}
