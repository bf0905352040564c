package dtos

import "io"

// Upload is a file forwarded to the backend in a multipart body.
type Upload struct {
	FieldName   string
	FileName    string
	ContentType string
	Body        io.Reader
}
