// Package upload resolves multipart file fields into a single File at the HTTP boundary.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"skillenergy/internal/apperr"
)

type kind int

const (
	kindImage kind = iota
	kindVideo
)

type fieldSpec struct {
	folder string
	kind   kind
}

var fieldSpecs = map[string]fieldSpec{
	"companyImage":       {folder: "companyImages", kind: kindImage},
	"thumbnail":          {folder: "thumbnails", kind: kindImage},
	"video":              {folder: "videos", kind: kindVideo},
	"profileImage":       {folder: "profileImages", kind: kindImage},
	"mentorImage":        {folder: "mentorImages", kind: kindImage},
	"language_thumbnail": {folder: "language_thumbnails", kind: kindImage},
	"image":              {folder: "images", kind: kindImage},
}

const defaultFolder = "general"

// memoryLimit is the part of a multipart body kept in memory; the rest spools to disk.
const memoryLimit = 32 << 20

// Folder maps an upload field name to its object-store folder.
func Folder(field string) string {
	if spec, ok := fieldSpecs[field]; ok {
		return spec.folder
	}
	return defaultFolder
}

// ObjectKey builds "<folder>/<unix-millis><ext>" for a file uploaded under field.
func ObjectKey(field, filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".jfif" {
		ext = ".jpg"
	}
	return fmt.Sprintf("%s/%d%s", Folder(field), now.UnixMilli(), ext)
}

// File is the one uploaded file a request carries, if any.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Size        int64
	open        func() (io.ReadCloser, error)
}

func (f *File) Open() (io.ReadCloser, error) {
	return f.open()
}

// FromBytes builds a File from an in-memory payload.
func FromBytes(field, filename, contentType string, data []byte) *File {
	return &File{
		Field:       field,
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Resolver parses request forms and picks the uploaded file.
type Resolver struct {
	MaxBytes int64
}

func NewResolver(maxBytes int64) *Resolver {
	return &Resolver{MaxBytes: maxBytes}
}

// ParseForm parses multipart or urlencoded bodies so form values can be read.
func (rv *Resolver) ParseForm(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(memoryLimit); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return apperr.Validation("Upload exceeds the maximum allowed size")
			}
			return apperr.Validation("Invalid multipart payload")
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return apperr.Validation("Invalid form payload")
	}
	return nil
}

// Resolve returns the first file present under one of fields, or nil when none is.
// ParseForm must have run first.
func (rv *Resolver) Resolve(r *http.Request, fields ...string) (*File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	for _, field := range fields {
		headers := r.MultipartForm.File[field]
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		f := &File{
			Field:       field,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		}
		if err := rv.check(f); err != nil {
			return nil, err
		}
		return f, nil
	}
	return nil, nil
}

func (rv *Resolver) check(f *File) error {
	if rv.MaxBytes > 0 && f.Size > rv.MaxBytes {
		return apperr.Validationf("File for %s exceeds the maximum allowed size", f.Field)
	}
	spec, ok := fieldSpecs[f.Field]
	if !ok {
		return apperr.Validationf("Unexpected file field %s", f.Field)
	}
	switch spec.kind {
	case kindVideo:
		if !strings.HasPrefix(f.ContentType, "video/") {
			return apperr.Validationf("Invalid file type for %s. Only videos are allowed.", f.Field)
		}
	default:
		ext := strings.ToLower(filepath.Ext(f.Filename))
		switch {
		case ext == ".jfif":
			f.ContentType = "image/jpeg"
		case strings.HasPrefix(f.ContentType, "image/"), f.ContentType == "application/octet-stream":
		default:
			return apperr.Validationf("Invalid file type for %s. Only images are allowed.", f.Field)
		}
	}
	return nil
}
