package adzuna

// SetMaxBodyBytes lowers the response size cap and returns a restore func.
func SetMaxBodyBytes(n int64) (restore func()) {
	prev := maxBodyBytes
	maxBodyBytes = n
	return func() { maxBodyBytes = prev }
}
