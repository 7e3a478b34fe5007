// Package applicationservice owns the membership application lifecycle: public
// submission, admin claim/accept/reject, role assignment on accepted members,
// and the joining-letter side effects.
//
// Every state-changing operation passes through the authorization gate and
// appends exactly one immutable history entry. Status transitions, membership
// id minting, and outbox events share one write boundary in the repository
// adapter; letter rendering and email delivery are best-effort side effects
// that never roll back a committed transition.
package applicationservice
