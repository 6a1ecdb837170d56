package testutil

// Pattern returns n bytes counting up from 0, wrapping at 256.
func Pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}
