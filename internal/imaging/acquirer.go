// Package imaging turns uploaded image bytes into the opaque handle the wizard stores.
package imaging

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/rendis/vetassist/pkg/schema"
)

// DefaultMaxSize is the largest accepted upload.
const DefaultMaxSize = 10 << 20

const refPrefix = "img:sha256:"

var acceptedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Image describes an accepted upload.
type Image struct {
	Ref         schema.ImageRef `json:"ref"`
	ContentType string          `json:"content_type"`
	Size        int64           `json:"size"`
}

// Acquirer validates uploads and derives content-addressed references.
type Acquirer struct {
	maxSize int64
}

// NewAcquirer returns an Acquirer that rejects uploads larger than maxSize
// bytes. A non-positive maxSize means DefaultMaxSize.
func NewAcquirer(maxSize int64) *Acquirer {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Acquirer{maxSize: maxSize}
}

// Acquire reads r fully and returns the image description.
func (a *Acquirer) Acquire(ctx context.Context, r io.Reader) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, a.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, schema.NewError(schema.ErrCodeValidation, "image is empty")
	}
	if int64(len(data)) > a.maxSize {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "image exceeds %d bytes", a.maxSize).
			WithDetails(map[string]any{"max_size": a.maxSize})
	}

	contentType := http.DetectContentType(data)
	if !slices.Contains(acceptedTypes, contentType) {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "unsupported image type %q", contentType).
			WithDetails(map[string]any{"accepted": acceptedTypes})
	}

	sum := sha256.Sum256(data)
	return &Image{
		Ref:         schema.ImageRef(refPrefix + hex.EncodeToString(sum[:])),
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// AcquireFile is Acquire over the contents of path.
func (a *Acquirer) AcquireFile(ctx context.Context, path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, schema.NewErrorf(schema.ErrCodeNotFound, "image file %s not found", path).WithCause(err)
		}
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return a.Acquire(ctx, f)
}

// IsRef reports whether s looks like a reference produced by an Acquirer.
func IsRef(s string) bool {
	hexPart, ok := strings.CutPrefix(s, refPrefix)
	if !ok || len(hexPart) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hexPart)
	return err == nil
}
