// Package authclient implements the client side of the Hemolink
// blood-donation platform's authentication API: an observable session
// store, bearer token lifecycle checks, credential operations (login,
// registration, logout, password reset, email verification) and the
// building blocks for role gated routing.
//
// The package holds no server secrets. Tokens are treated as opaque
// bearer credentials; the only claim the client inspects is the expiry,
// and any token that cannot be decoded is treated as expired.
package authclient
