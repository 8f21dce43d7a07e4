package domain

// UploadFile is a file handed to the extractor: the name, declared MIME
// type and raw bytes of one upload.
type UploadFile struct {
	Name string
	Type string
	Data []byte
}

func (f UploadFile) Size() int64 { return int64(len(f.Data)) }

// ProcessedFile is the result of extracting one uploaded file. Exactly
// one of Content (possibly empty) or Err is meaningful: a non-empty Err
// means processing did not complete.
type ProcessedFile struct {
	Filename string
	Type     string
	Content  string
	Metadata map[string]any
	Err      string
}

// Failed reports whether extraction completed for this file.
func (p ProcessedFile) Failed() bool { return p.Err != "" }
