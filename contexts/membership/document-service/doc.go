// Package documentservice releases membership documents to unauthenticated
// members who prove control of their registered email address.
//
// The flow is a four-step protocol: request a one-time code, verify it, view
// the member profile with the minted token, and generate the PDF artifact.
// The token check on generation is the binding control; the profile view is a
// convenience. One-time codes are spent by a single atomic verify; tokens stay
// valid for repeated downloads until they expire.
package documentservice
