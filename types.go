package mayray

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Method is an HTTP request method.
type Method int

const (
	MethodUnknown Method = iota
	MethodGet
	MethodPost
	MethodHead
	MethodPut
	MethodDelete
	MethodConnect
	MethodOptions
	MethodTrace
	MethodPatch
)

var methodNames = [...]string{
	MethodUnknown: "UNKNOWN",
	MethodGet:     "GET",
	MethodPost:    "POST",
	MethodHead:    "HEAD",
	MethodPut:     "PUT",
	MethodDelete:  "DELETE",
	MethodConnect: "CONNECT",
	MethodOptions: "OPTIONS",
	MethodTrace:   "TRACE",
	MethodPatch:   "PATCH",
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return methodNames[MethodUnknown]
	}
	return methodNames[m]
}

func (m Method) IsValid() bool {
	return m > MethodUnknown && int(m) < len(methodNames)
}

// ParseMethod maps a method token onto a Method. The token is trimmed and
// compared case-insensitively. Unrecognized tokens yield MethodUnknown and an
// error wrapping ErrInvalidInput.
func ParseMethod(s string) (Method, error) {
	token := strings.ToUpper(strings.TrimSpace(s))
	for m := MethodGet; int(m) < len(methodNames); m++ {
		if methodNames[m] == token {
			return m, nil
		}
	}
	return MethodUnknown, fmt.Errorf("unexpected request method %q: %w", s, ErrInvalidInput)
}

// Status is an HTTP response status with a fixed reason phrase.
type Status int

const (
	StatusOK                  Status = 200
	StatusBadRequest          Status = 400
	StatusNotFound            Status = 404
	StatusMethodNotAllowed    Status = 405
	StatusTeapot              Status = 418
	StatusInternalServerError Status = 500
)

// Code returns the numeric status code.
func (s Status) Code() int {
	return int(s)
}

// Text returns the reason phrase, e.g. "Not Found".
func (s Status) Text() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusBadRequest:
		return "Bad Request"
	case StatusNotFound:
		return "Not Found"
	case StatusMethodNotAllowed:
		return "Method Not Allowed"
	case StatusTeapot:
		return "I'm a teapot"
	case StatusInternalServerError:
		return "Internal Server Error"
	default:
		return "Unknown"
	}
}

// String returns the code followed by the reason phrase, e.g. "404 Not Found".
func (s Status) String() string {
	return strconv.Itoa(int(s)) + " " + s.Text()
}

// TLSStatus says whether the listening socket is wrapped in TLS.
type TLSStatus string

const (
	TLSOn  TLSStatus = "on"
	TLSOff TLSStatus = "off"
)

func (t TLSStatus) IsValid() bool {
	switch t {
	case TLSOn, TLSOff:
		return true
	default:
		return false
	}
}

// ParseTLSStatus accepts on/off, yes/no, true/false and 1/0.
func ParseTLSStatus(s string) (TLSStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes", "true", "1":
		return TLSOn, nil
	case "off", "no", "false", "0":
		return TLSOff, nil
	default:
		return "", fmt.Errorf("invalid tls status: %s (valid values: on, off)", s)
	}
}

// ServerConfig holds what the startup sequence needs to open the listening
// socket. KeyStorePassword is consumed once to build the TLS context and
// wiped afterwards.
type ServerConfig struct {
	Host             string
	Port             int
	TLS              TLSStatus
	KeyStorePath     string
	KeyStorePassword *Secret
}

// Addr returns host:port.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// WipePasswords overwrites every password the config holds.
func (c *ServerConfig) WipePasswords() {
	if c.KeyStorePassword != nil {
		c.KeyStorePassword.Wipe()
	}
}

// FileEntry is a regular file below a downloadable directory.
type FileEntry struct {
	Path string
	Size int64
}
