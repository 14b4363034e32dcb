package assets

import (
	"errors"
	"io/fs"
)

type overlayFS []fs.FS

// Overlay returns a filesystem that opens each name from the first layer
// containing it. Nil layers are skipped.
func Overlay(layers ...fs.FS) fs.FS {
	var o overlayFS
	for _, l := range layers {
		if l != nil {
			o = append(o, l)
		}
	}
	return o
}

func (o overlayFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	var firstErr error
	for _, l := range o {
		f, err := l.Open(name)
		if err == nil {
			return f, nil
		}
		if firstErr == nil || !errors.Is(err, fs.ErrNotExist) {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return nil, firstErr
}
