package trie_test

import (
	"slices"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/worstcase/pkg/cost"
	"github.com/papercomputeco/worstcase/pkg/path"
	"github.com/papercomputeco/worstcase/pkg/trie"
)

var (
	b1 = path.Branch{Method: "sort", Offset: 10}
	b2 = path.Branch{Method: "sort", Offset: 22}

	L  = path.Decision{Branch: b1, Choice: 0}
	R  = path.Decision{Branch: b1, Choice: 1}
	L2 = path.Decision{Branch: b2, Choice: 0}
	R2 = path.Decision{Branch: b2, Choice: 1}
)

func mkPath(ds ...path.Decision) *path.Path {
	return path.New(ds, cost.State{Cost: int64(len(ds))})
}

// entry is a flattened trie node used to compare stores structurally.
type entry struct {
	Window string
	Counts map[int]int
	Ended  map[int]int
}

func flatten(s *trie.Store) []entry {
	var out []entry
	s.Walk(func(w path.History, counts, ended map[int]int) bool {
		out = append(out, entry{Window: w.String(), Counts: counts, Ended: ended})
		return true
	})
	return out
}

// checkInvariant asserts that every node's counts equal the ended counts of
// all nodes below it.
func checkInvariant(s *trie.Store) {
	s.Walk(func(w path.History, counts, _ map[int]int) bool {
		sum := map[int]int{}
		s.Walk(func(w2 path.History, _, ended map[int]int) bool {
			if len(w2) >= len(w) && slices.Equal(w2[len(w2)-len(w):], w) {
				for c, n := range ended {
					sum[c] += n
				}
			}
			return true
		})
		ExpectWithOffset(1, counts).To(Equal(sum), "window %s", w)
		return true
	})
}

var _ = Describe("Builder and Store", func() {
	Describe("round trip", func() {
		It("returns the inserted choice for every window in the path", func() {
			p := mkPath(L, R2, R, L2, L)
			b := trie.NewBuilder(2)
			b.PutPath(p)
			s := b.Build(false)

			for i := range p.Len() {
				Expect(s.Choices(p.History(i, 2))).To(ContainElement(p.At(i).Choice), "position %d", i)
			}
		})

		It("counts a choice once per path", func() {
			b := trie.NewBuilder(1)
			b.PutPath(mkPath(R))
			b.PutPath(mkPath(L2, R))
			b.PutPath(mkPath(R2, L, R))
			s := b.Build(false)

			Expect(s.CountsForChoice(1)).To(Equal(4))
			Expect(s.CountsForChoice(0)).To(Equal(2))
			Expect(s.CountsForChoice(7)).To(Equal(0))
		})

		It("counts N distinct paths choosing C exactly once as N", func() {
			b := trie.NewBuilder(2)
			for _, first := range []path.Decision{L, L2, R2} {
				b.Put(path.History{first}, 9)
			}
			Expect(b.Build(false).CountsForChoice(9)).To(Equal(3))
		})
	})

	Describe("Choices", func() {
		var s *trie.Store

		BeforeEach(func() {
			b := trie.NewBuilder(2)
			b.Put(path.History{L, R}, 1)
			b.Put(path.History{L, R}, 0)
			b.Put(path.History{R2, R}, 1)
			b.Put(path.History{}, 0)
			s = b.Build(false)
		})

		It("returns all observed choices sorted", func() {
			Expect(s.Choices(path.History{L, R})).To(Equal([]int{0, 1}))
			Expect(s.Counts(path.History{L, R})).To(Equal(map[int]int{0: 1, 1: 1}))
		})

		It("truncates long histories to the window", func() {
			Expect(s.Choices(path.History{L2, L2, R2, R})).To(Equal([]int{1}))
		})

		It("returns an empty result for unseen histories", func() {
			Expect(s.Choices(path.History{R, R})).To(BeEmpty())
		})

		It("answers the empty history from windows that ended at the root", func() {
			Expect(s.Choices(nil)).To(Equal([]int{0}))
		})

		It("does not answer a bare suffix when not adaptive", func() {
			Expect(s.Choices(path.History{R})).To(BeEmpty())
		})

		It("reports the bound", func() {
			Expect(s.MaxHistoryLength()).To(Equal(2))
			Expect(s.Adaptive()).To(BeFalse())
		})
	})

	Describe("adaptive fallback", func() {
		build := func(adaptive bool) *trie.Store {
			b := trie.NewBuilder(3)
			b.Put(path.History{L, L2, R}, 1)
			b.Put(path.History{R, L2, R}, 1)
			b.Put(path.History{R2, R2, L}, 0)
			return b.Build(adaptive)
		}

		It("falls back to the longest observed suffix", func() {
			Expect(build(true).Choices(path.History{L2, L2, R})).To(Equal([]int{1}))
		})

		It("returns empty without adaptivity", func() {
			Expect(build(false).Choices(path.History{L2, L2, R})).To(BeEmpty())
		})

		It("falls back to the global distribution when nothing matches", func() {
			Expect(build(true).Choices(path.History{L2})).To(Equal([]int{0, 1}))
		})

		It("prefers exact matches", func() {
			Expect(build(true).Counts(path.History{R2, R2, L})).To(Equal(map[int]int{0: 1}))
		})
	})

	Describe("structure", func() {
		It("keeps pass-through counts equal to the ended counts below", func() {
			b := trie.NewBuilder(2)
			b.PutPath(mkPath(L, L, R, L2, R2, L))
			b.PutPath(mkPath(R, L2, L2))
			checkInvariant(b.Build(true))
		})

		It("stores nothing beyond the root with no history", func() {
			b := trie.NewBuilder(0)
			b.PutPath(mkPath(L, R, R))
			s := b.Build(false)

			Expect(s.Size()).To(Equal(1))
			Expect(s.Choices(path.History{L, R})).To(Equal([]int{0, 1}))
			Expect(s.Counts(nil)).To(Equal(map[int]int{0: 1, 1: 2}))
		})

		It("clamps a negative bound to zero", func() {
			Expect(trie.NewBuilder(-3).MaxHistory()).To(Equal(0))
		})

		It("freezes a copy on Build", func() {
			b := trie.NewBuilder(1)
			b.Put(path.History{L}, 1)
			s := b.Build(false)
			b.Put(path.History{L}, 0)

			Expect(s.Choices(path.History{L})).To(Equal([]int{1}))
			Expect(s.Observations()).To(Equal(1))
		})

		It("renders a readable dump", func() {
			b := trie.NewBuilder(1)
			b.Put(path.History{L}, 1)
			out := b.Build(false).String()
			Expect(out).To(ContainSubstring("max history 1"))
			Expect(out).To(ContainSubstring("sort@10:0 {1:1} ended {1:1}"))
		})
	})

	Describe("merge", func() {
		var s1, s2, s3 *trie.Store

		BeforeEach(func() {
			b := trie.NewBuilder(2)
			b.PutPath(mkPath(L, R, L))
			s1 = b.Build(false)

			b = trie.NewBuilder(2)
			b.PutPath(mkPath(L, R, R, L2))
			s2 = b.Build(false)

			b = trie.NewBuilder(1)
			b.PutPath(mkPath(R2, L))
			s3 = b.Build(false)
		})

		merge := func(stores ...*trie.Store) *trie.Store {
			b := trie.NewBuilder(0)
			for _, s := range stores {
				b.AddStore(s)
			}
			return b.Build(false)
		}

		It("sums counts for every window and choice", func() {
			m := merge(s1, s2)
			for _, w := range []path.History{nil, {L}, {L, R}, {R, R}, {R, L}} {
				want := map[int]int{}
				for c, n := range s1.Counts(w) {
					want[c] += n
				}
				for c, n := range s2.Counts(w) {
					want[c] += n
				}
				if len(want) == 0 {
					Expect(m.Counts(w)).To(BeEmpty(), "window %s", w)
					continue
				}
				Expect(m.Counts(w)).To(Equal(want), "window %s", w)
			}
			Expect(m.CountsForChoice(0)).To(Equal(s1.CountsForChoice(0) + s2.CountsForChoice(0)))
			checkInvariant(m)
		})

		It("is commutative", func() {
			Expect(cmp.Diff(flatten(merge(s1, s2)), flatten(merge(s2, s1)))).To(BeEmpty())
		})

		It("is associative", func() {
			left := merge(merge(s1, s2), s3)
			right := merge(s1, merge(s2, s3))
			Expect(cmp.Diff(flatten(left), flatten(right))).To(BeEmpty())
		})

		It("keeps the larger history bound", func() {
			Expect(merge(s3, s1).MaxHistoryLength()).To(Equal(2))
		})

		It("keeps observations of the shorter bound reachable", func() {
			short := trie.NewBuilder(1)
			short.Put(path.History{R}, 1)
			long := trie.NewBuilder(2)
			long.Put(path.History{L2, R}, 0)
			a, b := short.Build(false), long.Build(false)
			m := merge(a, b)

			Expect(m.Counts(path.History{R2, R})).To(Equal(map[int]int{1: 1}))
			for _, w := range []path.History{nil, {R}, {L2, R}, {R2, R}, {L, R}, {R, R}} {
				want := map[int]int{}
				for c, n := range a.Counts(w) {
					want[c] += n
				}
				for c, n := range b.Counts(w) {
					want[c] += n
				}
				if len(want) == 0 {
					Expect(m.Counts(w)).To(BeEmpty(), "window %s", w)
					continue
				}
				Expect(m.Counts(w)).To(Equal(want), "window %s", w)
			}
			checkInvariant(m)
		})

		It("keeps mixed bounds reachable after an encoding round trip", func() {
			m := merge(s3, s1)
			data, err := m.MarshalJSON()
			Expect(err).NotTo(HaveOccurred())
			decoded, err := trie.Decode(data)
			Expect(err).NotTo(HaveOccurred())

			w := path.History{L, R2}
			Expect(decoded.Counts(w)).To(Equal(m.Counts(w)))
			Expect(decoded.Counts(w)).To(Equal(s3.Counts(w)))
		})

		It("leaves the inputs untouched", func() {
			before := flatten(s1)
			merge(s1, s2, s1)
			Expect(cmp.Diff(before, flatten(s1))).To(BeEmpty())
		})
	})

	Describe("encoding", func() {
		It("round trips through JSON", func() {
			b := trie.NewBuilder(2)
			b.PutPath(mkPath(L, R, L2, R2, L))
			s := b.Build(true)

			data, err := s.MarshalJSON()
			Expect(err).NotTo(HaveOccurred())

			decoded, err := trie.Decode(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded.Adaptive()).To(BeTrue())
			Expect(decoded.MaxHistoryLength()).To(Equal(2))
			Expect(decoded.Size()).To(Equal(s.Size()))
			Expect(cmp.Diff(flatten(s), flatten(decoded))).To(BeEmpty())
		})

		It("produces stable digests", func() {
			first := trie.NewBuilder(1)
			first.Put(path.History{L}, 0)
			first.Put(path.History{R}, 1)

			second := trie.NewBuilder(1)
			second.Put(path.History{R}, 1)
			second.Put(path.History{L}, 0)

			d1, err := first.Build(false).Digest()
			Expect(err).NotTo(HaveOccurred())
			d2, err := second.Build(false).Digest()
			Expect(err).NotTo(HaveOccurred())
			Expect(d1).To(Equal(d2))
			Expect(d1).To(HaveLen(64))
		})

		It("rejects unknown versions", func() {
			_, err := trie.Decode([]byte(`{"version":99,"max_history":0,"root":{"counts":{}}}`))
			Expect(err).To(MatchError(ContainSubstring("unsupported")))
		})

		It("rejects tries deeper than their bound", func() {
			data := `{"version":1,"max_history":0,"root":{"counts":{"0":1},"children":[{"decision":{"branch":{"method":"m","offset":1},"choice":0},"counts":{"0":1}}]}}`
			_, err := trie.Decode([]byte(data))
			Expect(err).To(MatchError(ContainSubstring("deeper")))
		})

		It("treats full windows of version 1 tries as saturated", func() {
			data := `{"version":1,"max_history":1,"root":{"counts":{"1":1},"children":[{"decision":{"branch":{"method":"sort","offset":10},"choice":0},"counts":{"1":1},"ended":{"1":1}}]}}`
			s, err := trie.Decode([]byte(data))
			Expect(err).NotTo(HaveOccurred())

			b := trie.NewBuilder(0)
			b.AddStore(s)
			long := trie.NewBuilder(2)
			long.Put(path.History{R, R}, 0)
			b.AddStore(long.Build(false))
			m := b.Build(false)
			Expect(m.Counts(path.History{R2, L})).To(Equal(map[int]int{1: 1}))
		})

		It("rejects saturated counts above the ended counts", func() {
			data := `{"version":2,"max_history":1,"root":{"counts":{"1":1},"children":[{"decision":{"branch":{"method":"sort","offset":10},"choice":0},"counts":{"1":1},"ended":{"1":1},"saturated":{"1":2}}]}}`
			_, err := trie.Decode([]byte(data))
			Expect(err).To(MatchError(ContainSubstring("exceeds")))
		})

		It("rejects garbage", func() {
			_, err := trie.Decode([]byte("not json"))
			Expect(err).To(HaveOccurred())
		})
	})
})
