package gen

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/tabula/compiler/load"
)

// writeFile renders f into the package directory. The file is rendered in
// memory first so that a rendering failure leaves the previous file intact.
func (g *Generator) writeFile(f *jen.File, p *load.Package) error {
	path := filepath.Join(p.Dir, g.cfg.Filename)
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return NewGenerationError(path, err)
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return NewGenerationError(path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return NewGenerationError(path, err)
	}
	return nil
}

// removeFile deletes a stale mapping file of p, if any.
func (g *Generator) removeFile(p *load.Package) error {
	if p.Dir == "" {
		return nil
	}
	path := filepath.Join(p.Dir, g.cfg.Filename)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return NewGenerationError(path, err)
	}
	return nil
}
