package models

import (
	"bytes"
	"io"
)

// Attachment is a reference file uploaded together with a prompt.
//
// Open is called once per submission so the same attachment can be retried after a failure.
type Attachment struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// BytesAttachment wraps in-memory content.
func BytesAttachment(name, contentType string, data []byte) Attachment {
	return Attachment{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
