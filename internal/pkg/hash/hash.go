package hash

// Hash produces and checks digests of strings.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}
