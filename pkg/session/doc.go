// Package session manages the authenticated connection to one ESS appliance.
//
// # Login
//
// Login sends the appliance password and receives an auth key, then performs
// a time-sync handshake with that key. The key is stored only after the
// handshake reports success. A failed handshake is a protocol error and is
// never retried.
//
// # Authenticated requests
//
// Every request carries the current key in the JSON body field "auth_key".
// The appliance answers {"auth": "auth_key failed"} once the key has
// expired. The session then waits, logs in again with the stored password
// and repeats the request with the same payload. Connection failures take
// the same path. The number of re-logins per request is bounded by
// RetryPolicy; once it is exhausted the request fails with an auth error.
//
// The session never re-resolves the appliance address. Callers that suspect
// an address change resolve again and build a new Session.
//
// # TLS
//
// Appliances serve a self-signed certificate. Verification stays on unless
// WithInsecureSkipVerify(true) is passed.
package session
