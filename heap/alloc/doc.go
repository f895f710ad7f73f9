// Package alloc implements the kernel heap allocator: malloc, free,
// realloc, calloc and valloc over a growable linear range.
//
// # Overview
//
// All allocator state lives inside the heap itself. Every block starts at a
// page-aligned header tagged with BinMagic, and a pointer is mapped back to
// its header by rounding it down to the page. Go memory holds only the list
// heads and counters.
//
// # Size Classes
//
// Requests are rounded up to a power of two. Classes 0 through 9 are served
// from bin pages holding cells of one size; class 10, the big bin, is served
// by individually sized blocks:
//
//	Class 0:     4 bytes   (1020 cells per page)
//	Class 1:     8 bytes
//	Class 2:    16 bytes
//	...
//	Class 8:  1024 bytes   (3 cells per page)
//	Class 9:  2048 bytes   (1 cell per page)
//	Class 10: > 2048 bytes (big blocks, whole pages)
//
// # Bin Pages
//
// A bin page is one page with a 16-byte header followed by equal cells.
// Free cells form an intrusive stack: the header points at the top cell and
// each free cell's first word points at the next one. A page sits on its
// class list exactly while it has a free cell.
//
// # Big Blocks
//
// A big block is one or more pages behind a 48-byte header whose size field
// holds the usable byte count. Free big blocks are indexed by size in a skip
// list whose forward pointers live in the headers; a request takes the
// smallest free block that fits, whole. Blocks are never split or merged.
// All big blocks are also chained in address order for verification.
//
//	+----------------+------------------------------------------+
//	| header (48 B)  | payload (size bytes)                     |
//	+----------------+------------------------------------------+
//	^ page aligned                   (size + 48) % PageSize == 0
//
// # Growth and Exhaustion
//
// When no cell or block fits, the allocator grows the heap through its
// Backing: one page for a new bin page, ceil((size+48)/PageSize) pages for a
// new big block. If the reserved range cannot hold that growth the request
// fails with ErrNoSpace and nothing changes. Memory is never given back.
//
// # Faults
//
// Broken structural invariants and misuse such as freeing a big block twice
// raise a fault through internal/fault and do not return. Freeing a pointer
// that does not lead to a valid header is ignored. Verify checks the whole
// structure and reports problems as errors instead.
//
// # Thread Safety
//
// Every exported method takes one global spin lock. The lock is not
// reentrant; internal paths call the unlocked variants.
package alloc
