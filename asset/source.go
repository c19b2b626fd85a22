// Package asset locates and loads the critter's frames and sounds
package asset

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
)

// Source opens assets by slash-separated relative path
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// DirSource serves assets from a local directory
type DirSource struct {
	root string
	fsys fs.FS
}

func NewDirSource(root string) *DirSource {
	return &DirSource{root: root, fsys: os.DirFS(root)}
}

// NewFSSource serves assets from any fs.FS (embedded or testing/fstest)
func NewFSSource(fsys fs.FS) *DirSource {
	return &DirSource{root: ".", fsys: fsys}
}

func (d *DirSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := CleanPath(name)
	f, err := d.fsys.Open(clean)
	if err != nil {
		return nil, fmt.Errorf("open asset %s: %w", clean, err)
	}
	return f, nil
}

// Root returns the directory the source was created with
func (d *DirSource) Root() string { return d.root }

// CleanPath normalizes an asset path to the fs.FS form: no leading slash,
// no dot segments
func CleanPath(name string) string {
	p := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "."
	}
	return p
}

// ReadAll opens name and returns its full content
func ReadAll(ctx context.Context, src Source, name string) ([]byte, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", name, err)
	}
	return data, nil
}
