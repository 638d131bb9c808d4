// Package mayray provides the core types of a small, self-contained HTTP(S)
// server that lets clients list and download password-protected directories.
//
// The server owns its listening socket and speaks a subset of HTTP/1.1
// without relying on net/http: one request per connection, no keep-alive,
// no chunked encoding.
//
// # Key Components
//
//   - Request: parsed request line, case-insensitive headers and a body that
//     can be consumed once
//   - Route / Routes: ordered table of regular expressions and handlers
//   - Secret: a password holder that yields its value once and can be wiped
//   - ServerConfig: host, port and keystore settings consumed at startup
//
// See the http package for the wire codec and route handlers, the server
// package for the accept loop and worker pool, the access package for the
// per-directory password gate and the filesystem package for zip archives.
//
// # Example Usage
//
//	routes := mayray.NewRoutes(
//	    mayray.MustRoute("Root response", "/", rootHandler),
//	    mayray.MustRoute("List files", `/list\?.+`, listHandler),
//	)
//
//	route, ok := routes.Match(req.Resource)
//	if !ok {
//	    return mayrayhttp.NotFound()
//	}
//	return route.Handler.Respond(req)
package mayray
