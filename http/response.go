package http

import (
	"bytes"
	"mime"
	"strconv"
	"strings"

	"github.com/sagarc03/mayray"
)

const (
	httpVersion = "HTTP/1.1"
	crlf        = "\r\n"
)

// Content types used in responses.
const (
	ContentTypeText = "text/plain; charset=UTF-8"
	ContentTypeHTML = "text/html; charset=UTF-8"
	ContentTypeZip  = "application/zip"
)

// Disposition tells the browser whether to show a file or save it.
type Disposition string

const (
	Inline     Disposition = "inline"
	Attachment Disposition = "attachment"
)

type header struct {
	name  string
	value string
}

// build serializes a response. Content-Length is always derived from body.
func build(status mayray.Status, headers []header, body []byte) []byte {
	var b bytes.Buffer
	b.Grow(128 + len(body))

	b.WriteString(httpVersion + " " + status.String() + crlf)
	b.WriteString("Content-Length: " + strconv.Itoa(len(body)) + crlf)
	for _, h := range headers {
		b.WriteString(h.name + ": " + h.value + crlf)
	}
	b.WriteString(crlf)
	b.Write(body)

	return b.Bytes()
}

// PlainText returns a text/plain response. A trailing CRLF is appended to body.
func PlainText(status mayray.Status, body string) []byte {
	return build(status, []header{{"Content-Type", ContentTypeText}}, []byte(body+crlf))
}

// HTML returns a 200 text/html response.
func HTML(body string) []byte {
	return build(mayray.StatusOK, []header{{"Content-Type", ContentTypeHTML}}, []byte(body))
}

// File returns a 200 response carrying content as the file name.
func File(name, contentType string, disposition Disposition, content []byte) []byte {
	return build(mayray.StatusOK, []header{
		{"Content-Type", contentType},
		{"Content-Disposition", mime.FormatMediaType(string(disposition), map[string]string{"filename": name})},
	}, content)
}

// MethodNotAllowed returns a 405 response listing the allowed methods in the
// Allow header. It has no body and reports a Content-Length of zero.
func MethodNotAllowed(allowed ...mayray.Method) []byte {
	var headers []header
	if len(allowed) > 0 {
		names := make([]string, len(allowed))
		for i, m := range allowed {
			names[i] = m.String()
		}
		headers = append(headers, header{"Allow", strings.Join(names, ", ")})
	}
	return build(mayray.StatusMethodNotAllowed, headers, nil)
}

// Head strips the body from a serialized response. Content-Length keeps the
// length the body would have had.
func Head(response []byte) []byte {
	end := bytes.Index(response, []byte(crlf+crlf))
	if end < 0 {
		return response
	}
	return response[:end+len(crlf+crlf)]
}

// StatusOf reads the status code from the status line of a serialized
// response.
func StatusOf(response []byte) (int, bool) {
	prefix := httpVersion + " "
	if len(response) < len(prefix)+3 || !bytes.HasPrefix(response, []byte(prefix)) {
		return 0, false
	}
	code, err := strconv.Atoi(string(response[len(prefix) : len(prefix)+3]))
	if err != nil {
		return 0, false
	}
	return code, true
}
