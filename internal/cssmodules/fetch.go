package icm

import (
	"context"
	"io/fs"
	"path"
	"strings"
)

// FileFetcher reads CSS modules from a file system and runs them through
// a Transformer. Load addresses are slash-separated paths within FS.
type FileFetcher struct {
	FS          fs.FS
	Transformer Transformer
}

func NewFileFetcher(fsys fs.FS, transformer Transformer) *FileFetcher {
	if transformer == nil {
		transformer = ModuleTransformer{}
	}
	return &FileFetcher{FS: fsys, Transformer: transformer}
}

func (f *FileFetcher) Fetch(ctx context.Context, load Load) (*StyleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchTransformError{Name: load.Name, Err: err}
	}
	addr := path.Clean(strings.TrimPrefix(load.address(), "/"))
	content, err := fs.ReadFile(f.FS, addr)
	if err != nil {
		return nil, &FetchTransformError{Name: load.Name, Err: err}
	}
	rec, err := f.Transformer.Transform(load.Name, string(content))
	if err != nil {
		return nil, &FetchTransformError{Name: load.Name, Err: err}
	}
	return rec, nil
}
