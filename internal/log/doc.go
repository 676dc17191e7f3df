// Package log provides secure logging with automatic sanitization of
// sensitive information, built on top of the standard slog package.
//
// The headers analyzer logs live HTTP responses and the server logs
// request metadata, so log output can carry cookies, authorization
// headers, and API keys belonging to scanned targets. The SecureHandler
// masks those values before they reach the underlying handler:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Secret values detected by pattern matching (JWTs, bearer tokens,
//     private key blocks)
//   - Session identifiers and credentials
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of secrets in logs that may be shared or stored.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("response received",
//	    "set-cookie", "session=abc123", // masked
//	    "url", "https://example.com",
//	)
//
//	slog.SetDefault(logger)
package log
