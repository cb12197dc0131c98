// Package server provides HTTP routing, middleware, and the library browsing endpoints.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Library Handler
//
// [LibraryHandler] serves the captured mp3 tree:
//
//	GET  /            → embedded single-page player
//	GET  /api/tracks  → rescan the library and return {channel: [track, ...]}
//	GET  /api/stream  → one weighted-random track pick for stream mode
//	POST /api/rate    → write a 0-5 star rating into the file's ID3 tag
//	GET  /mp3/{path}  → range-capable audio serving, traversal-safe
//
// Track listings reflect the library.Store snapshot, so readers never see a
// half-rebuilt index while captures publish concurrently.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
