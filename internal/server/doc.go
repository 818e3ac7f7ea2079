// Package server provides HTTP routing, middleware, and the JSON API served by `rivora serve`.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in the order it was added; a call to [BasicRouter.Use] only affects routes
// registered after it, which is how the public routes stay outside [RequireIdentity].
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so one path may carry a GET and a POST.
//
// # Routes
//
//	GET  /health                         liveness
//	GET  /api/plans                      subscription plans
//	GET  /api/generations                gallery snapshot (?type=Image|Video|Text&favorites=true)
//	POST /api/generations                multipart prompt, generationType, file
//	POST /api/generations/{id}/favorite  toggle favorite, returns the item
//
// Errors are returned as {"error": "..."} using the same messages the terminal client shows.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
