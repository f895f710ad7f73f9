// Package heap assembles a complete kernel heap from its parts: a reserved
// linear range (internal/vmem), a physical frame bitmap (heap/frames), the
// sbrk-style grower (heap/grow) and the allocator (heap/alloc).
//
// Usage:
//
//	h, err := heap.New(heap.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	p, err := h.Alloc(128)
//	if err != nil {
//	    return err
//	}
//	copy(h.Bytes(p, 5), "hello")
//	h.Free(p)
//
// Configs can be read from TOML with LoadConfig:
//
//	base = 0x10000000
//	size = 4194304
//	reserved_frames = [0, 1]
//	seed = 7
package heap
