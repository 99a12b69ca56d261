// Package http provides HTTP handlers and middleware for the hall booking API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}. The
//     token is returned in the body and surfaced via the `X-Session-Token`
//     header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the current session token extracted
//     from the Authorization header or session cookie.
//   - GET /halls, POST /halls, GET/PUT/DELETE /halls/{id}: hall catalog
//     endpoints exchanging the `hallDTO` payload defined in hall_handler.go.
//     Query parameters on the listing (type, min_capacity, location,
//     max_rate_cents) switch it to the filtered variant.
//   - GET /halls/{id}/quote?start&end: prices an interval without reserving it.
//   - GET /halls/{id}/availability?start&end: reports whether the hall admits
//     a booking for the interval.
//   - GET /bookings, POST /bookings, DELETE /bookings/{id}: booking lifecycle
//     endpoints exchanging the `bookingDTO` payload in booking_handler.go.
//   - GET /availability?hall_id, POST /availability: declared availability
//     windows. GET /maintenance?hall_id, POST /maintenance: scheduled
//     maintenance windows.
//   - GET /issues, POST /issues, PUT /issues/{id}/assignee: issue lifecycle
//     endpoints exchanging the `issueDTO` payload in issue_handler.go.
//   - GET /users, POST /users, PUT /users/{id}/status: manager-controlled
//     account endpoints.
//
// Everything except POST /sessions sits behind the RequireSession middleware.
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
