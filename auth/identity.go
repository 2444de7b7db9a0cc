package auth

// canonicalIdentities maps seeded demo accounts to the internal key their
// data was created under. Historically this remap was duplicated ad hoc in
// individual endpoints; keeping it in one table at the boundary means every
// component downstream sees the same canonical identity. Domain packages
// never remap; they use whatever key they are handed.
var canonicalIdentities = map[string]string{
	"demo-vendor": "11111111-1111-1111-1111-111111111111",
}

// CanonicalIdentity resolves a caller identity to its canonical internal key.
// Unknown identities pass through unchanged.
func CanonicalIdentity(userID string) string {
	if canonical, ok := canonicalIdentities[userID]; ok {
		return canonical
	}
	return userID
}
