package format

// PageAlignDown returns addr rounded down to its page boundary.
//
// Example:
//
//	PageAlignDown(0x1000) = 0x1000
//	PageAlignDown(0x1fff) = 0x1000
func PageAlignDown(addr uint32) uint32 {
	return addr &^ PageMask
}

// IsPageAligned reports whether addr sits on a page boundary.
func IsPageAligned(addr uint32) bool {
	return addr&PageMask == 0
}

// PagesFor returns the number of pages needed to hold n bytes.
func PagesFor(n uint32) uint32 {
	pages := n / PageSize
	if n&PageMask != 0 {
		pages++
	}
	return pages
}
