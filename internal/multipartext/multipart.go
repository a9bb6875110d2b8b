// Package multipartext builds multipart form bodies around a file without reading the file into memory.
package multipartext

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// NewMultipartReadSeeker returns multipart form-data with src as the file part named field, followed by fields.
// The body can be rewound, so requests carrying it can be retried.
// Also returns the form data content type (see multipart.Writer#FormDataContentType).
func NewMultipartReadSeeker(field, filename string, fields map[string]string, src io.ReadSeeker) (io.ReadSeeker, string, error) {
	buffy := &bytes.Buffer{}
	writer := multipart.NewWriter(buffy)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	header.Set("Content-Type", "application/octet-stream")

	// The file content goes between the part header and whatever follows it.
	if _, err := writer.CreatePart(header); err != nil {
		return nil, "", err
	}
	headerSize := buffy.Len()

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writer.WriteField(k, fields[k]); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	body, err := Concat(
		bytes.NewReader(buffy.Bytes()[:headerSize]),
		src,
		bytes.NewReader(buffy.Bytes()[headerSize:]),
	)
	if err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}
