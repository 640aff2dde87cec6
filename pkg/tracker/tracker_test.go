package tracker_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/worstcase/pkg/cost"
	"github.com/papercomputeco/worstcase/pkg/path"
	"github.com/papercomputeco/worstcase/pkg/tracker"
)

var (
	br = path.Branch{Method: "loop", Offset: 4}
	L  = path.Decision{Branch: br, Choice: 0}
	R  = path.Decision{Branch: br, Choice: 1}
)

func mkPath(c int64, ds ...path.Decision) *path.Path {
	return path.New(ds, cost.State{Model: cost.ModelInstructions, Cost: c})
}

var _ = Describe("Tracker", func() {
	It("has no champion initially", func() {
		Expect(tracker.New().Current()).To(BeNil())
	})

	It("ignores a nil path", func() {
		t := tracker.New()
		Expect(t.Consider(nil)).To(BeFalse())
		Expect(t.Current()).To(BeNil())
	})

	DescribeTable("keeps the costlier path regardless of arrival order",
		func(first, second *path.Path) {
			t := tracker.New()
			t.Consider(first)
			t.Consider(second)
			Expect(t.Current().Cost()).To(Equal(int64(12)))
		},
		Entry("cheap first", mkPath(3, L), mkPath(12, R)),
		Entry("costly first", mkPath(12, R), mkPath(3, L)),
	)

	It("does not replace on an equal path", func() {
		t := tracker.New()
		a := mkPath(5, L, R)
		Expect(t.Consider(a)).To(BeTrue())
		Expect(t.Consider(mkPath(5, L, R))).To(BeFalse())
		Expect(t.Current()).To(BeIdenticalTo(a))
		Expect(t.Replacements()).To(Equal(1))
		Expect(t.Considered()).To(Equal(2))
	})

	It("picks [L,L,L] among the three recorded paths", func() {
		paths := []*path.Path{
			mkPath(10, L, L, R),
			mkPath(7, L, R),
			mkPath(12, L, L, L),
		}
		orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}, {2, 0, 1}}
		for _, order := range orders {
			t := tracker.New()
			for _, i := range order {
				t.Consider(paths[i])
			}
			Expect(t.Current().Decisions()).To(Equal([]path.Decision{L, L, L}))
			Expect(t.Current().Cost()).To(Equal(int64(12)))
		}
	})
})
