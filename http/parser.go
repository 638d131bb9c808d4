package http

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sagarc03/mayray"
)

const (
	// maxHeaderBytes bounds the request line plus all header lines.
	maxHeaderBytes = 64 << 10

	tlsHandshakeRecord = 0x16
)

// ParseRequest reads the request line and the header lines up to the first
// empty line. The body is left unread in r; the returned request hands it out
// through its Body method.
//
// Every failure is a *ParseError.
func ParseRequest(ctx context.Context, r *bufio.Reader, logger *slog.Logger) (*mayray.Request, error) {
	first, err := r.Peek(1)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Msg: "connection closed before request line", Err: ErrEmptyRequest}
		}
		return nil, &ParseError{Msg: fmt.Sprintf("read request line: %v", err), Err: err}
	}
	if first[0] == tlsHandshakeRecord {
		return nil, &ParseError{Msg: "client sent a TLS handshake", Err: ErrTLSOnPlainPort}
	}

	lines, err := readHeaderLines(r, logger)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, &ParseError{Msg: "there are no lines in the header", Err: ErrMalformedRequestLine}
	}

	fields := strings.Fields(lines[0])
	if len(fields) != 3 {
		return nil, &ParseError{
			Msg: fmt.Sprintf("could not parse method, resource and HTTP version from request line %q", lines[0]),
			Err: ErrMalformedRequestLine,
		}
	}

	method, err := mayray.ParseMethod(fields[0])
	if err != nil {
		return nil, &ParseError{Msg: err.Error(), Err: ErrUnknownMethod}
	}

	headers := parseHeaders(lines[1:], logger)

	return mayray.NewRequest(ctx, method, fields[1], fields[2], headers, r), nil
}

// readHeaderLines returns the lines before the first empty line, without
// their line terminators. A read error after the request line ends the header
// section early instead of failing the request.
func readHeaderLines(r *bufio.Reader, logger *slog.Logger) ([]string, error) {
	var (
		lines []string
		total int
	)

	for {
		line, err := r.ReadString('\n')
		total += len(line)
		if total > maxHeaderBytes {
			return nil, &ParseError{
				Msg: fmt.Sprintf("header section exceeds %d bytes", maxHeaderBytes),
				Err: ErrHeaderTooLarge,
			}
		}

		line = strings.TrimRight(line, "\r\n")
		if err != nil {
			if line != "" {
				lines = append(lines, line)
			}
			if len(lines) == 0 {
				if errors.Is(err, io.EOF) {
					return nil, &ParseError{Msg: "connection closed before request line", Err: ErrEmptyRequest}
				}
				return nil, &ParseError{Msg: fmt.Sprintf("read request line: %v", err), Err: err}
			}
			if !errors.Is(err, io.EOF) {
				logger.Warn("could not read all lines from request", "err", err)
			}
			return lines, nil
		}

		if line == "" {
			return lines, nil
		}
		lines = append(lines, line)
	}
}

func parseHeaders(lines []string, logger *slog.Logger) map[string]string {
	headers := make(map[string]string, len(lines))
	for _, line := range lines {
		name, value, found := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			logger.Warn("skipping malformed header line", "line", line)
			continue
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers
}

// maxBodyBytes bounds bodies read with ReadBody.
const maxBodyBytes = 1 << 20

// ReadBody reads as many bytes from the request body as its Content-Length
// header announces.
func ReadBody(req *mayray.Request) (string, error) {
	n, err := req.ContentLength()
	if err != nil {
		return "", err
	}
	if n > maxBodyBytes {
		return "", fmt.Errorf("read body: content length %d exceeds %d: %w", n, maxBodyBytes, mayray.ErrInvalidInput)
	}

	body, err := req.Body()
	if err != nil {
		return "", err
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(body, buf); err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(buf), nil
}
