// Package tenancy decides which tenant a signed-in user works in.
//
// A user must belong to at least one tenant. A single membership is selected
// automatically; with several the user picks one and the choice is kept on
// the session until it disappears from the membership list.
package tenancy
