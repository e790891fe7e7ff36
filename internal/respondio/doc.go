// Package respondio is a small client for the respond.io contact API.
//
// Contacts are addressed by phone: every call targets
// {base}/contact/phone:{phone}.
//
//	GET  -> 200 existing contact, 404 absent, anything else is an error
//	POST -> create, 200/201 success
//	PUT  -> update (full or partial custom_fields), 200 success
//
// Requests carry a bearer token and JSON content negotiation headers. The
// client performs no retries.
package respondio
