package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/sagarc03/mayray"
)

// Query parameter names and the name of the password input of the login form.
const (
	DirKey            = "dir"
	PasswordKey       = "pass"
	PasswordInputName = "passwordInput"
)

// Gate decides whether a directory below the download root may be
// downloaded and whether a password unlocks it.
type Gate interface {
	IsDownloadAllowed(desired string) bool
	PasswordMatches(desired, password string) bool
	NormalizedPath(desired string) string
	RelativePath(path string) string
}

// Archiver lists and zips directories.
type Archiver interface {
	ZipAll(ctx context.Context, sourceDir, destZipPath string, rewrite func(string) string) error
	ListFiles(ctx context.Context, dir string) ([]mayray.FileEntry, error)
}

type HandlerConfig struct {
	// ZipDir is where archives are written, one <directoryName>.zip each.
	ZipDir string
}

// Handler produces the responses of every route the server knows.
type Handler struct {
	config   HandlerConfig
	gate     Gate
	archiver Archiver
	logger   *slog.Logger

	// Directories with the same base name share an archive path. Holding
	// its lock from zipping until the archive is read keeps one download
	// from sending another directory's archive.
	zipLocks sync.Map // archive path -> *sync.Mutex
}

// NewHandler creates a new Handler with the given configuration.
func NewHandler(config *HandlerConfig, gate Gate, archiver Archiver, logger *slog.Logger) *Handler {
	return &Handler{
		config:   *config,
		gate:     gate,
		archiver: archiver,
		logger:   logger,
	}
}

// Routes returns the route table. The first matching route wins, so more
// specific patterns come first.
func (h *Handler) Routes() mayray.Routes {
	recovery := Recovery(h.logger)
	route := func(name, pattern string, f mayray.HandlerFunc) mayray.Route {
		return mayray.MustRoute(name, pattern, recovery(f))
	}

	routes := []mayray.Route{
		route("Root response", "/", h.handleRoot),
		route("Echo", "/echo", h.handleEcho),
		route("Coffee response", "/coffee", h.handleCoffee),
		route("List files", `/list\?.+`, h.handleList),
		mayray.MustRoute("Get directory", `/get\?.+`, recovery(HeadSupport(mayray.HandlerFunc(h.handleGet)))),
	}
	for _, p := range people {
		routes = append(routes, route(p.name+" responses", "/"+p.path+".*", personHandler(p)))
	}
	routes = append(routes, route("Log system resources", "/stats.*", h.handleStats))

	return mayray.NewRoutes(routes...)
}

func (h *Handler) handleRoot(req *mayray.Request) []byte {
	if req.Method != mayray.MethodGet {
		return MethodNotAllowed(mayray.MethodGet)
	}
	return PlainText(mayray.StatusOK, "The server says hi 👋")
}

func (h *Handler) handleEcho(req *mayray.Request) []byte {
	if req.Method != mayray.MethodPost {
		return MethodNotAllowed(mayray.MethodPost)
	}

	body, err := ReadBody(req)
	if err != nil {
		h.logger.Warn("could not read body of post message", "err", err)
		return PlainText(mayray.StatusBadRequest, "Could not read body of post message")
	}
	return PlainText(mayray.StatusOK, "The server thanks you for your post message: "+body)
}

func (h *Handler) handleCoffee(*mayray.Request) []byte {
	return PlainText(mayray.StatusTeapot, "Can't give you coffee, but here's some tea: 🍵")
}

func (h *Handler) handleList(req *mayray.Request) []byte {
	query := req.Query()
	dir, hasDir := query[DirKey]

	switch req.Method {
	case mayray.MethodGet:
		if !hasDir {
			return h.page("needDir", pageData{Title: "Which directory?", DirKey: DirKey})
		}
		password, hasPassword := query[PasswordKey]
		if !hasPassword {
			return h.page("login", pageData{Title: "Authentication", Dir: dir, InputName: PasswordInputName})
		}
		return h.dirContentsOrDenial(req.Context(), dir, password)

	case mayray.MethodPost:
		body, err := ReadBody(req)
		if err != nil {
			h.logger.Warn("could not read body of post message", "err", err)
			return PlainText(mayray.StatusBadRequest, "Could not read body of post message")
		}
		password, ok := passwordFromBody(req, body)
		if !ok {
			return h.page("noPasswordInBody", pageData{Title: "Couldn't get password from body", InputName: PasswordInputName})
		}
		if !hasDir {
			return h.page("needDir", pageData{Title: "Which directory?", DirKey: DirKey})
		}
		return h.dirContentsOrDenial(req.Context(), dir, password)

	default:
		return MethodNotAllowed(mayray.MethodGet, mayray.MethodPost)
	}
}

func (h *Handler) dirContentsOrDenial(ctx context.Context, dir, password string) []byte {
	if !h.gate.IsDownloadAllowed(dir) {
		return h.page("cannotDownload", pageData{Title: "Can't download directory", Dir: dir})
	}
	if !h.gate.PasswordMatches(dir, password) {
		return h.page("wrongPassword", pageData{Title: "Directory password incorrect", InputName: PasswordInputName})
	}

	dirPath := h.gate.NormalizedPath(dir)
	files, err := h.archiver.ListFiles(ctx, dirPath)
	if err != nil {
		h.logger.Error("could not list directory", "dir", dirPath, "err", err)
		return ServerError("Could not list directory")
	}

	rows := make([]fileRow, len(files))
	for i, f := range files {
		rows[i] = fileRow{Name: h.gate.RelativePath(f.Path), Size: humanize.Bytes(uint64(f.Size))}
	}

	link := url.Values{DirKey: {dir}, PasswordKey: {password}}
	return h.page("dirContents", pageData{
		Title:        "Files of " + h.gate.RelativePath(dirPath),
		Dir:          h.gate.RelativePath(dirPath),
		Files:        rows,
		DownloadLink: "get?" + link.Encode(),
	})
}

func (h *Handler) handleGet(req *mayray.Request) []byte {
	if req.Method != mayray.MethodGet {
		return MethodNotAllowed(mayray.MethodGet, mayray.MethodHead)
	}

	query := req.Query()
	dir, hasDir := query[DirKey]
	password, hasPassword := query[PasswordKey]
	if !hasDir || !hasPassword {
		return PlainText(mayray.StatusBadRequest, fmt.Sprintf(
			"Could not get password (key: '%s') and directory (key: '%s') from request URL", PasswordKey, DirKey))
	}

	if !h.gate.IsDownloadAllowed(dir) || !h.gate.PasswordMatches(dir, password) {
		h.logger.Info("not zipping directory: access denied", "dir", dir)
		return h.page("accessDenied", pageData{Title: "Access denied", Dir: dir})
	}

	dirPath := h.gate.NormalizedPath(dir)
	archiveName := filepath.Base(dirPath) + ".zip"
	zipPath := filepath.Join(h.config.ZipDir, archiveName)

	unlock := h.lockArchive(zipPath)
	defer unlock()

	if err := h.archiver.ZipAll(req.Context(), dirPath, zipPath, h.gate.RelativePath); err != nil {
		h.logger.Error("could not zip directory", "dir", dirPath, "err", err)
		return ServerError("Could not zip directory")
	}

	content, err := os.ReadFile(zipPath) //nolint:gosec // Path is built from the configured zip dir
	if err != nil {
		h.logger.Error("could not read zip archive", "path", zipPath, "err", err)
		return ServerError("Could not read zip archive")
	}

	h.logger.Info("sending zip archive", "path", zipPath, "size", humanize.Bytes(uint64(len(content))))
	return File(archiveName, ContentTypeZip, Attachment, content)
}

func (h *Handler) lockArchive(path string) (unlock func()) {
	v, _ := h.zipLocks.LoadOrStore(path, new(sync.Mutex))
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (h *Handler) handleStats(*mayray.Request) []byte {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	h.logger.Info("system stats",
		"goroutines", runtime.NumGoroutine(),
		"cpus", runtime.NumCPU(),
		"heap_alloc", humanize.Bytes(mem.HeapAlloc),
		"heap_sys", humanize.Bytes(mem.HeapSys),
		"total_alloc", humanize.Bytes(mem.TotalAlloc),
		"gc_cycles", mem.NumGC,
	)

	return PlainText(mayray.StatusOK, "📊 Now logging system stats on the server")
}

func (h *Handler) page(name string, data pageData) []byte {
	html, err := renderPage(name, data)
	if err != nil {
		h.logger.Error("could not render page", "page", name, "err", err)
		return ServerError("Could not render page")
	}
	return HTML(html)
}

// passwordFromBody extracts the password the login form posted. URL-encoded
// form bodies are decoded; otherwise the first line starting with
// "passwordInput=" is used verbatim.
func passwordFromBody(req *mayray.Request, body string) (string, bool) {
	if contentType, _ := req.Header("Content-Type"); isURLEncoded(contentType) {
		values, err := url.ParseQuery(strings.TrimSpace(body))
		if err != nil || !values.Has(PasswordInputName) {
			return "", false
		}
		return values.Get(PasswordInputName), true
	}

	prefix := PasswordInputName + "="
	for _, line := range strings.Split(body, "\r\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimPrefix(line, prefix), true
		}
	}
	return "", false
}

func isURLEncoded(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), "application/x-www-form-urlencoded")
}
