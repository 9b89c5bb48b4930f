// Package middleware groups the Fiber middleware mounted by the start command.
//
//   - rayid: tags every request with an X-Ray-ID, reusing the caller's header
//     when present, and stores it in the request locals for logging.
//   - auth: rejects requests without the configured API key. An empty key
//     leaves the API open.
package middleware
