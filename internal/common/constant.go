// Package common contains shared constants, sentinel errors and user-facing
// strings used across learnassist components.
package common

// AuthorizationHeaderName carries the bearer token between the CLI and the proxy.
const AuthorizationHeaderName = "Authorization"

// AllCollectionsID addresses every collection at once on card listing routes.
const AllCollectionsID = "all"

// ArtifactVariantCanonical is the only artifact variant the backend is asked
// to produce; one artifact per generate request.
const ArtifactVariantCanonical = 0
