// Package main provides the entry point for the websentry CLI.
//
// Websentry analyzes a website's security posture across six dimensions:
// SSL/TLS configuration, security headers, technology stack, malware
// reputation, open ports, and domain registration.
//
// Usage:
//
//	websentry scan <url-or-domain>
//	websentry serve --listen :8080
//
// See --help for all available options.
package main

// main is the entry point for websentry.
func main() {
	Execute()
}
