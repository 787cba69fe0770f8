package httpadapter

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

const (
	uploadFieldName   = "documents"
	maxFormValueBytes = 64 << 10
	multipartOverhead = 1 << 20
)

var allowedUploadTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"image/gif":       true,
	"image/bmp":       true,
	"image/webp":      true,
	"application/pdf": true,
	"text/plain":      true,
}

// uploadError carries the client-facing title and message of a rejected upload.
type uploadError struct {
	kind    error
	title   string
	message string
}

func (e *uploadError) Error() string {
	return e.title + ": " + e.message
}

func (e *uploadError) Unwrap() error {
	return e.kind
}

type uploadLimits struct {
	maxFileBytes int64
	maxFiles     int
}

func (l uploadLimits) fileTooLarge() error {
	return &uploadError{
		kind:    domain.ErrFileTooLarge,
		title:   "File too large",
		message: fmt.Sprintf("File size must be less than %s", formatSize(l.maxFileBytes)),
	}
}

func (l uploadLimits) tooManyFiles() error {
	return &uploadError{
		kind:    domain.ErrTooManyFiles,
		title:   "Too many files",
		message: fmt.Sprintf("Maximum %d files allowed per upload", l.maxFiles),
	}
}

func unexpectedField() error {
	return &uploadError{
		kind:    domain.ErrUnexpectedField,
		title:   "Unexpected file field",
		message: `Please use "documents" field for file uploads`,
	}
}

func unsupportedType(mimeType string) error {
	return &uploadError{
		kind:    domain.ErrUnsupportedFileType,
		title:   "Unsupported file type",
		message: fmt.Sprintf("Unsupported file type: %s. Please upload images (JPG, PNG, etc.) or PDF files.", mimeType),
	}
}

func noFiles() error {
	return &uploadError{
		kind:    domain.ErrInvalidInput,
		title:   "No files uploaded",
		message: "Please select at least one file to upload",
	}
}

func invalidForm(message string) error {
	return &uploadError{
		kind:    domain.ErrInvalidInput,
		title:   "Invalid upload",
		message: message,
	}
}

// multipartUpload is a validated upload: the files under the documents field
// and the plain form values sent alongside them.
type multipartUpload struct {
	files  []domain.UploadedFile
	values map[string]string
}

// readUpload streams the multipart body part by part so an oversized or
// disallowed file is rejected before the rest of the request is read.
func readUpload(w http.ResponseWriter, r *http.Request, limits uploadLimits) (multipartUpload, error) {
	maxBody := limits.maxFileBytes*int64(limits.maxFiles) + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	reader, err := r.MultipartReader()
	if err != nil {
		return multipartUpload{}, invalidForm("Request must be multipart/form-data")
	}

	upload := multipartUpload{values: map[string]string{}}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return multipartUpload{}, readFailure(err, limits)
		}

		if part.FileName() == "" {
			value, err := io.ReadAll(io.LimitReader(part, maxFormValueBytes))
			_ = part.Close()
			if err != nil {
				return multipartUpload{}, readFailure(err, limits)
			}
			upload.values[part.FormName()] = string(value)
			continue
		}

		file, err := readFilePart(part.FormName(), part.FileName(), part.Header.Get("Content-Type"), part, limits, len(upload.files))
		_ = part.Close()
		if err != nil {
			return multipartUpload{}, err
		}
		upload.files = append(upload.files, file)
	}

	if len(upload.files) == 0 {
		return multipartUpload{}, noFiles()
	}
	return upload, nil
}

func readFilePart(field, name, contentType string, body io.Reader, limits uploadLimits, seen int) (domain.UploadedFile, error) {
	if field != uploadFieldName {
		return domain.UploadedFile{}, unexpectedField()
	}
	if seen >= limits.maxFiles {
		return domain.UploadedFile{}, limits.tooManyFiles()
	}

	mimeType := normalizeMimeType(contentType)
	if !allowedUploadTypes[mimeType] {
		return domain.UploadedFile{}, unsupportedType(mimeType)
	}

	data, err := io.ReadAll(io.LimitReader(body, limits.maxFileBytes+1))
	if err != nil {
		return domain.UploadedFile{}, readFailure(err, limits)
	}
	if int64(len(data)) > limits.maxFileBytes {
		return domain.UploadedFile{}, limits.fileTooLarge()
	}

	return domain.UploadedFile{
		Name:     name,
		Size:     int64(len(data)),
		MimeType: mimeType,
		Data:     data,
	}, nil
}

func readFailure(err error, limits uploadLimits) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return limits.fileTooLarge()
	}
	return invalidForm("Malformed multipart body")
}

func normalizeMimeType(contentType string) string {
	if contentType == "" {
		return "application/octet-stream"
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

func formatSize(bytes int64) string {
	if bytes >= 1<<20 && bytes%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", bytes>>20)
	}
	if bytes >= 1<<10 && bytes%(1<<10) == 0 {
		return fmt.Sprintf("%dKB", bytes>>10)
	}
	return fmt.Sprintf("%d bytes", bytes)
}
