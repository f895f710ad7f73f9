//go:build !unix

package vmem

// reserveMem falls back to ordinary Go memory when mmap is not available.
// Every page is accessible from the start; the page table still records mappings.
func reserveMem(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func protectRW([]byte) error { return nil }

func releaseMem([]byte) error { return nil }
