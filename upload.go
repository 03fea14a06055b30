package alto

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// Conventional multipart field names for the file and files groups. The
// same keys are used when documenting bare file/files bodies.
const (
	uploadFieldFile  = "file"
	uploadFieldFiles = "files"
)

// FileUpload holds a parsed file from a multipart form upload.
type FileUpload struct {
	Filename string
	Size     int64
	Header   *multipart.FileHeader
	file     multipart.File
}

// Open returns a reader for the uploaded file contents.
func (f *FileUpload) Open() (io.ReadCloser, error) {
	if f.file != nil {
		return f.file, nil
	}
	if f.Header == nil {
		return nil, fmt.Errorf("no file header")
	}
	file, err := f.Header.Open()
	if err != nil {
		return nil, err
	}
	f.file = file
	return file, nil
}

// formFile extracts a single upload from an already-parsed multipart form.
func formFile(r *http.Request, fieldName string) (*FileUpload, error) {
	file, header, err := r.FormFile(fieldName)
	if err != nil {
		return nil, fmt.Errorf("form file %q: %w", fieldName, err)
	}
	return &FileUpload{
		Filename: header.Filename,
		Size:     header.Size,
		Header:   header,
		file:     file,
	}, nil
}

// formFiles extracts all uploads for a field from an already-parsed
// multipart form.
func formFiles(r *http.Request, fieldName string) []FileUpload {
	if r.MultipartForm == nil || len(r.MultipartForm.File[fieldName]) == 0 {
		return nil
	}
	headers := r.MultipartForm.File[fieldName]
	uploads := make([]FileUpload, 0, len(headers))
	for _, header := range headers {
		uploads = append(uploads, FileUpload{
			Filename: header.Filename,
			Size:     header.Size,
			Header:   header,
		})
	}
	return uploads
}
