// Package session holds the client's single source of truth for "am I
// authenticated, and as whom".
//
// A Cell owns the current bearer credential and the Session derived from it.
// Nothing else mutates that state: the gateway feeds login results and
// forced logouts in through SetCredential, and every other component reads
// Session or subscribes to changes.
//
// # Shape validation
//
// A credential is accepted only if it is three dot-separated segments whose
// middle segment base64url-decodes to a JSON object carrying a non-empty
// "sub" claim. The signature is not verified; the catalogue service does that
// on every request. Anything else collapses to the logged-out state and the
// invalid value is discarded, never retained.
//
// # Notifications
//
// Every SetCredential call produces exactly one notification batch, after the
// state has been normalized, delivered through a uiloop.Dispatcher so that
// observers run on the UI-owning goroutine. Observers receive the Session
// snapshot of the transition that produced them. Batches are published in
// transition order; an observer that calls SetCredential gets its own
// transition published once the current batch is done.
package session
