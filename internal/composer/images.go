package composer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"

	"github.com/joeblew999/plat-campus/internal/campus"
)

// MaxImageBytes is the per-file size ceiling (10 MB).
const MaxImageBytes = 10 * 1024 * 1024

// previewSize bounds the attachment preview thumbnail.
const previewSize = 96

var allowedExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "webp": true, "heic": true, "heif": true,
}

// Upload is a file the visitor picked. Open is only called for files that
// pass the size check.
type Upload struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// FromFileHeader adapts a multipart file.
func FromFileHeader(fh *multipart.FileHeader) Upload {
	return Upload{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open:        func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// BytesUpload builds an upload from memory.
func BytesUpload(name string, data []byte) Upload {
	return Upload{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// Image is an accepted attachment. Preview is a data URL thumbnail for
// formats the server can decode, empty otherwise.
type Image struct {
	campus.Attachment
	Preview string
}

// extension returns the lowercase text after the last dot, or the whole
// name when there is none.
func extension(name string) string {
	lower := strings.ToLower(name)
	if i := strings.LastIndex(lower, "."); i >= 0 {
		return lower[i+1:]
	}
	return lower
}

// Validate checks the size ceiling, then the extension allow-list.
func Validate(u Upload) error {
	if u.Size > MaxImageBytes {
		return &FileError{Name: u.Name, Err: ErrImageTooLarge}
	}
	if !allowedExtensions[extension(u.Name)] {
		return &FileError{Name: u.Name, Err: ErrImageFormat}
	}
	return nil
}

// Attach validates a batch of uploads and appends the accepted ones in
// order. It returns the attachment list after the batch and one error per
// rejected file.
func (c *Composer) Attach(uploads []Upload) ([]Image, []error) {
	var accepted []Image
	var rejected []error
	for _, u := range uploads {
		if err := Validate(u); err != nil {
			rejected = append(rejected, err)
			continue
		}
		img, err := readUpload(u)
		if err != nil {
			rejected = append(rejected, &FileError{Name: u.Name, Err: err})
			continue
		}
		accepted = append(accepted, img)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = append(c.images, accepted...)
	return c.imagesLocked(), rejected
}

// RemoveImage drops the attachment at index i.
func (c *Composer) RemoveImage(i int) ([]Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.images) {
		return c.imagesLocked(), fmt.Errorf("attachment index %d out of range", i)
	}
	c.images = append(c.images[:i], c.images[i+1:]...)
	return c.imagesLocked(), nil
}

// Images returns a copy of the attachment list.
func (c *Composer) Images() []Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imagesLocked()
}

func (c *Composer) imagesLocked() []Image {
	out := make([]Image, len(c.images))
	copy(out, c.images)
	return out
}

func readUpload(u Upload) (Image, error) {
	if u.Open == nil {
		return Image{}, fmt.Errorf("upload %s has no content", u.Name)
	}
	rc, err := u.Open()
	if err != nil {
		return Image{}, fmt.Errorf("opening upload: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxImageBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > MaxImageBytes {
		return Image{}, ErrImageTooLarge
	}

	ct := u.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = mime.TypeByExtension(filepath.Ext(strings.ToLower(u.Name)))
	}
	if ct == "" {
		ct = http.DetectContentType(data)
	}

	return Image{
		Attachment: campus.Attachment{Name: u.Name, ContentType: ct, Data: data},
		Preview:    preview(data),
	}, nil
}

// preview renders a small JPEG data URL for PNG and JPEG attachments.
func preview(data []byte) string {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	thumb := resize.Thumbnail(previewSize, previewSize, src, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return ""
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
