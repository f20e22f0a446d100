// Package assets decides whether uploaded bytes are an image we accept.
// Only the leading bytes of the content count; the client's declared MIME
// type and file name are never trusted for that decision.
package assets

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/server/models"
	"github.com/google/uuid"
)

// Format is a sniffed image format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// ContentType is the MIME type stored alongside the object.
func (f Format) ContentType() string {
	return "image/" + string(f)
}

var signatures = []struct {
	magic  []byte
	format Format
}{
	{[]byte{0x89, 0x50, 0x4E, 0x47}, FormatPNG},
	{[]byte{0xFF, 0xD8, 0xFF, 0xE0}, FormatJPEG},
	{[]byte{0xFF, 0xD8, 0xFF, 0xE1}, FormatJPEG},
	{[]byte{0xFF, 0xD8, 0xFF, 0xE2}, FormatJPEG},
	{[]byte{0xFF, 0xD8, 0xFF, 0xE3}, FormatJPEG},
	{[]byte{0xFF, 0xD8, 0xFF, 0xE8}, FormatJPEG},
}

// declared MIME type -> stored file extension
var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
}

// Sniff matches the first four bytes of head against the accepted
// signatures. ok is false for anything shorter or unknown.
func Sniff(head []byte) (Format, bool) {
	if len(head) < 4 {
		return "", false
	}
	for _, s := range signatures {
		if bytes.Equal(head[:4], s.magic) {
			return s.format, true
		}
	}
	return "", false
}

// Accepted is an upload that passed validation and is ready to store.
type Accepted struct {
	Data   []byte
	Format Format
	Ext    string
	Key    string
}

// Validator checks uploads against a size limit and the image signatures.
type Validator struct {
	maxSize int64
	newID   func() string
}

// NewValidator returns a Validator rejecting uploads larger than maxSize bytes.
func NewValidator(maxSize int64) *Validator {
	return &Validator{maxSize: maxSize, newID: uuid.NewString}
}

// Validate reads the whole upload and returns it with a storage key, or an
// error wrapping common.ErrorValidation when the content is not a PNG or JPEG.
func (v *Validator) Validate(a models.NewAsset) (*Accepted, error) {
	if a.Content == nil {
		return nil, fmt.Errorf("%w: image is required", common.ErrorValidation)
	}

	data, err := io.ReadAll(io.LimitReader(a.Content, v.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > v.maxSize {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", common.ErrorValidation, v.maxSize)
	}

	format, ok := Sniff(data)
	if !ok {
		return nil, fmt.Errorf("%w: invalid mime type", common.ErrorValidation)
	}

	ext, ok := extensions[strings.ToLower(a.DeclaredType)]
	if !ok {
		ext = defaultExt(format)
	}

	return &Accepted{
		Data:   data,
		Format: format,
		Ext:    ext,
		Key:    fmt.Sprintf("images/%s-%s.%s", sanitizeName(a.Name), v.newID(), ext),
	}, nil
}

func defaultExt(f Format) string {
	if f == FormatPNG {
		return "png"
	}
	return "jpg"
}

// sanitizeName lowercases the base name, drops its extension and keeps only
// characters that are safe in an object key. Spaces become dashes.
func sanitizeName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.ToLower(base)

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ', r == '.':
			b.WriteByte('-')
		}
	}

	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "image"
	}
	return out
}
