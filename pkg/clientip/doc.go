// Package clientip resolves a best-effort client address from an HTTP request.
//
// Precedence:
//  1. the first comma-separated token of X-Forwarded-For
//  2. X-Real-IP
//  3. the transport peer address (http.Request.RemoteAddr)
//
// A source that is missing or does not parse falls through to the next one.
// When none yields an address the result is absent:
//
//	addr, ok := clientip.GetIP(r)
//	if !ok {
//		// no address; callers key by principal or pass
//	}
//
// These headers are client-controlled unless a trusted proxy overwrites them,
// so deploy behind one when the address feeds admission control.
package clientip
