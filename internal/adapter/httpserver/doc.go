// Package httpserver is the HTTP and WebSocket gateway for the message board.
//
// Routes: GET / (full page), POST /new-message (form field "content"), GET /ws
// (live fragments), plus health, version and metrics endpoints. Every board
// route runs behind the session middleware, which assigns the anonymous
// session id used as a message's author.
package httpserver
