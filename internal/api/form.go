package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

type formField struct {
	name, value string
}

// FormFile is a file part of a multipart form, read from Path at encode time.
type FormFile struct {
	Field string
	Name  string
	Path  string
}

// Form is an ordered multipart form.
type Form struct {
	fields []formField
	files  []FormFile
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{}
}

// Set appends a text field.
func (f *Form) Set(name, value string) *Form {
	f.fields = append(f.fields, formField{name, value})
	return f
}

// SetOptional appends a text field only when value is non-empty.
func (f *Form) SetOptional(name, value string) *Form {
	if value != "" {
		f.Set(name, value)
	}
	return f
}

// AttachPath appends the file at path under field.
func (f *Form) AttachPath(field, path string) *Form {
	f.files = append(f.files, FormFile{Field: field, Name: filepath.Base(path), Path: path})
	return f
}

func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, fld := range f.fields {
		if err := w.WriteField(fld.name, fld.value); err != nil {
			return nil, "", err
		}
	}
	for _, file := range f.files {
		if err := writeFile(w, file); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, file FormFile) error {
	src, err := os.Open(file.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", file.Path, err)
	}
	defer src.Close()

	part, err := w.CreateFormFile(file.Field, file.Name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("copy %s: %w", file.Name, err)
	}
	return nil
}
