package alloc

import (
	"math"
	"math/rand/v2"

	"github.com/joshuapare/kheapkit/internal/fault"
	"github.com/joshuapare/kheapkit/internal/format"
)

// skipP makes each extra level a fair coin flip.
const skipP = math.MaxInt32

// skipList indexes the free big blocks by usable size, ascending. Its nodes
// are the block headers themselves: forward pointers are stored in the
// header, and only the sentinel lives in Go memory. Address 0 stands for the
// sentinel wherever a node is expected.
type skipList struct {
	ar    *arena
	head  [format.MaxLevel + 1]Addr
	level int // highest level with a non-null sentinel link
	count int
	hops  int // nodes stepped over by insert, delete and findBestFit
	rng   *rand.Rand
}

func newSkipList(ar *arena, seed uint64) skipList {
	return skipList{ar: ar, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *skipList) forward(node Addr, level int) Addr {
	if node == format.Null {
		return s.head[level]
	}
	return s.ar.forward(node, level)
}

func (s *skipList) setForward(node Addr, level int, v Addr) {
	if node == format.Null {
		s.head[level] = v
		return
	}
	s.ar.setForward(node, level, v)
}

// randomLevel draws a node level: P(level >= k) = 2^-k, capped at MaxLevel.
func (s *skipList) randomLevel() int {
	level := 0
	for level < format.MaxLevel && s.rng.Uint32() < skipP {
		level++
	}
	return level
}

// checkNode asserts the size/page invariant of a node reached during a walk.
func (s *skipList) checkNode(node Addr) {
	fault.Assert((s.ar.size(node)+format.BigHeaderSize)%format.PageSize == 0,
		"(node->size + sizeof(big_bin_header)) % PAGE_SIZE == 0")
}

// findBestFit returns the smallest free block with size >= size, or 0.
func (s *skipList) findBestFit(size uint32) Addr {
	node := Addr(format.Null)
	for i := s.level; i >= 0; i-- {
		for {
			next := s.forward(node, i)
			if next == format.Null || s.ar.size(next) >= size {
				break
			}
			node = next
			s.hops++
			s.checkNode(node)
		}
	}

	best := s.forward(node, 0)
	if best != format.Null {
		fault.Assert(format.IsPageAligned(best), "node % PAGE_SIZE == 0")
		s.checkNode(best)
	}
	return best
}

// checkInsertable asserts that h is a well-formed free big block.
func (s *skipList) checkInsertable(h Addr) {
	fault.Assert(h != format.Null, "value != NULL")
	fault.Assert(s.ar.head(h) != format.Null, "value->head != NULL")
	fault.Assert(s.ar.head(h) > h, "value->head > value")
	fault.Assert(s.ar.head(h) < s.ar.end(h), "value->head < value end")
	fault.Assert(format.IsPageAligned(h), "value % PAGE_SIZE == 0")
	fault.Assert(s.ar.size(h) != 0, "value->size != 0")
	s.checkNode(h)
}

// insert adds the free block h, which must not be listed. Blocks of equal
// size are kept together and a newly inserted block goes in front of its
// equals, so the equal-size run is never walked.
func (s *skipList) insert(h Addr) {
	s.checkInsertable(h)
	size := s.ar.size(h)

	var update [format.MaxLevel + 1]Addr
	node := Addr(format.Null)
	for i := s.level; i >= 0; i-- {
		for {
			next := s.forward(node, i)
			if next == format.Null || s.ar.size(next) >= size {
				break
			}
			node = next
			s.hops++
			s.checkNode(node)
		}
		update[i] = node
	}

	level := s.randomLevel()
	if level > s.level {
		for i := s.level + 1; i <= level; i++ {
			update[i] = format.Null
		}
		s.level = level
	}

	for i := 0; i <= level; i++ {
		s.setForward(h, i, s.forward(update[i], i))
		s.setForward(update[i], i, h)
	}
	for i := level + 1; i <= format.MaxLevel; i++ {
		s.ar.setForward(h, i, format.Null)
	}
	s.count++
}

// delete removes the block h and reports whether it was listed. The list is
// ordered by size only, so h's predecessor may sit inside the run of
// equal-size blocks. Level 0 walks that run up to h; a higher level can only
// step over run members already seen on level 0, and h is absent from every
// level above the first one where it is not reached. Deleting the head of a
// run therefore walks nothing.
func (s *skipList) delete(h Addr) bool {
	fault.Assert(h != format.Null, "value != NULL")
	fault.Assert(s.ar.head(h) != format.Null, "value->head != NULL")
	size := s.ar.size(h)

	var less [format.MaxLevel + 1]Addr
	node := Addr(format.Null)
	for i := s.level; i >= 0; i-- {
		for {
			next := s.forward(node, i)
			if next == format.Null || s.ar.size(next) >= size {
				break
			}
			node = next
			s.hops++
			s.checkNode(node)
		}
		less[i] = node
	}

	var update [format.MaxLevel + 1]Addr
	var ahead map[Addr]bool
	pred := less[0]
	for {
		next := s.forward(pred, 0)
		if next == h {
			break
		}
		if next == format.Null || s.ar.size(next) != size {
			return false
		}
		if ahead == nil {
			ahead = make(map[Addr]bool)
		}
		ahead[next] = true
		pred = next
		s.hops++
	}
	update[0] = pred

	top := 0
	for i := 1; i <= s.level; i++ {
		pred := less[i]
		for {
			next := s.forward(pred, i)
			if next == h || next == format.Null || !ahead[next] {
				break
			}
			pred = next
			s.hops++
		}
		if s.forward(pred, i) != h {
			break
		}
		update[i] = pred
		top = i
	}

	for i := 0; i <= top; i++ {
		s.setForward(update[i], i, s.ar.forward(h, i))
		if next := s.forward(update[i], i); next != format.Null {
			fault.Assert(format.IsPageAligned(next), "update[i]->forward[i] % PAGE_SIZE == 0")
			s.checkNode(next)
		}
	}
	for i := 0; i <= format.MaxLevel; i++ {
		s.ar.setForward(h, i, format.Null)
	}

	for s.level > 0 && s.head[s.level] == format.Null {
		s.level--
	}
	s.count--
	return true
}

// each calls fn for every listed block in ascending size order until fn returns false.
func (s *skipList) each(fn func(h Addr) bool) {
	for node := s.head[0]; node != format.Null; node = s.ar.forward(node, 0) {
		if !fn(node) {
			return
		}
	}
}

// levelCounts returns the number of nodes linked on each level.
func (s *skipList) levelCounts() []int {
	counts := make([]int, format.MaxLevel+1)
	for i := range counts {
		for node := s.head[i]; node != format.Null; node = s.ar.forward(node, i) {
			counts[i]++
		}
	}
	return counts
}
