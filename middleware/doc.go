// Package middleware adapts session authentication to plain net/http.
//
// [Guard] resolves the caller's session once per request, rejects
// anonymous requests with 401 and stores the per-request
// [goAccounts.Request] in the context so handlers reuse the cached session
// instead of reading the store again. [RequireCookie] and [RequireBearer]
// fix the credential transport.
package middleware
