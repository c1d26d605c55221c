// Package cli provides the interactive libcat command-line client.
//
// It wires configuration, the session cell, the credential vault, the
// authenticating gateway and the command gate into a REPL. The goroutine
// calling App.Run becomes the UI loop: the REPL goroutine hands every line
// to it, network requests run in the background and their outcome is
// printed back on the loop, one line per request.
//
// Which commands may run is decided by the gate from the session state
// and from local flags (a login already in flight, a remembered account);
// "help" lists only the commands available right now.
package cli
