// Package photo stores student profile photos and returns a reference to keep on the student.
package photo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnsupportedType is returned for files that are not png or jpeg images.
var ErrUnsupportedType = errors.New("unsupported photo type")

var allowedExt = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// Uploader stores a photo and returns its reference (path or URL).
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, filename string) (string, error)
}

func checkExt(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, filename)
	}
	return ext, nil
}

// Disk copies photos into a local directory so the reference survives the source file.
type Disk struct {
	Dir string
	now func() time.Time
}

// NewDisk creates a disk uploader rooted at dir.
func NewDisk(dir string) *Disk { return &Disk{Dir: dir, now: time.Now} }

func (d *Disk) Upload(ctx context.Context, r io.Reader, filename string) (string, error) {
	ext, err := checkExt(filename)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create photo dir: %w", err)
	}
	base := "photo_" + d.now().Format("20060102_150405")
	dest := filepath.Join(d.Dir, base+ext)
	for i := 1; fileExists(dest); i++ {
		dest = filepath.Join(d.Dir, fmt.Sprintf("%s_%d%s", base, i, ext))
	}

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create photo: %w", err)
	}
	if _, err := io.Copy(f, readerCtx{ctx: ctx, r: r}); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("write photo: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return dest, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type readerCtx struct {
	ctx context.Context
	r   io.Reader
}

func (rc readerCtx) Read(p []byte) (int, error) {
	if err := rc.ctx.Err(); err != nil {
		return 0, err
	}
	return rc.r.Read(p)
}
