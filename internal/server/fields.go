package server

import (
	"errors"
	"mime/multipart"
	"net/http"

	"oli-admin/internal/console"
)

// requestFields reads form values and uploaded files from a parsed request.
type requestFields struct {
	r     *http.Request
	files []multipart.File
}

func (s *Server) readFields(r *http.Request) (*requestFields, error) {
	limit := s.opts.MaxUploadBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	// Room for the text fields on top of the file itself.
	r.Body = http.MaxBytesReader(nil, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, err
	}
	return &requestFields{r: r}, nil
}

func (f *requestFields) Value(name string) string {
	return f.r.FormValue(name)
}

func (f *requestFields) File(name string) (*console.Upload, error) {
	if f.r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := f.r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f.files = append(f.files, file)

	return &console.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}, nil
}

func (f *requestFields) close() {
	for _, file := range f.files {
		file.Close()
	}
	if f.r.MultipartForm != nil {
		f.r.MultipartForm.RemoveAll()
	}
}
