// Package http implements the wire format of the mayray server and the
// handlers behind its routes.
//
// It does not use net/http. Requests are parsed straight off a buffered
// connection and handlers return complete serialized responses, which the
// server writes back verbatim.
//
// # Parsing
//
// ParseRequest reads the request line and the header section and leaves the
// body in the reader:
//
//	req, err := http.ParseRequest(ctx, bufio.NewReader(conn), logger)
//	if err != nil {
//	    conn.Write(http.BadRequest())
//	    return
//	}
//
// A first byte of 0x16 means a TLS client reached a plaintext port. Such
// requests fail with ErrTLSOnPlainPort.
//
// # Responses
//
// PlainText, HTML, File and MethodNotAllowed build responses. Content-Length
// always matches the body. Head drops the body of a response and keeps its
// headers.
//
// # Handlers
//
// Handler serves the route table:
//
//	h := http.NewHandler(&http.HandlerConfig{ZipDir: "zipFiles"}, gate, archiver, logger)
//	routes := h.Routes()
//
// The gate decides which directories are downloadable and whether a password
// unlocks them. The archiver lists and zips them. Every handler is wrapped in
// Recovery, so a panic becomes a 500 response.
package http
