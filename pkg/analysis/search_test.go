package analysis_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/worstcase/pkg/analysis"
	"github.com/papercomputeco/worstcase/pkg/path"
	"github.com/papercomputeco/worstcase/pkg/policy"
	"github.com/papercomputeco/worstcase/pkg/storage"
	"github.com/papercomputeco/worstcase/pkg/storage/inmemory"
)

// brokenDriver fails every write.
type brokenDriver struct {
	*inmemory.Driver
}

func (brokenDriver) Put(context.Context, *storage.Record) error {
	return errors.New("disk full")
}

var _ = Describe("SearchFinished", func() {
	var (
		ctx   context.Context
		store *inmemory.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = inmemory.NewDriver()
	})

	It("returns an empty result without a finished path", func() {
		l := newListener(analysis.Config{Serialize: true, Storage: store})
		res, err := l.SearchFinished(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Champion).To(BeNil())
		Expect(res.Policy).To(BeNil())
		Expect(res.RunID).NotTo(BeEmpty())

		has, err := store.Has(ctx, "sort")
		Expect(err).NotTo(HaveOccurred())
		Expect(has).To(BeFalse())
	})

	It("generates and saves a policy from the champion", func() {
		l := newListener(analysis.Config{HistorySize: 1, Serialize: true, Storage: store})
		explore(l)

		res, err := l.SearchFinished(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Failures).To(BeEmpty())
		Expect(res.Saved).To(BeTrue())
		Expect(res.PolicyKey).To(Equal("sort"))
		Expect(res.Policy.Resolve(path.History{L})).To(Equal([]int{0}))
		Expect(res.Policy.Resolve(path.History{L, L})).To(Equal([]int{0}))
		Expect(res.Policy.CountsForChoice(0)).To(Equal(3))

		rec, err := store.Get(ctx, "sort")
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Kind).To(Equal(policy.KindHistory))
		Expect(rec.MaxHistory).To(Equal(1))
		Expect(rec.Observations).To(Equal(3))

		stored, err := policy.Decode(rec.Kind, rec.Data)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.CountsForChoice(0)).To(Equal(3))
	})

	It("unifies with the stored policy", func() {
		cfg := analysis.Config{HistorySize: 1, Serialize: true, Unify: true, Storage: store}

		first := newListener(cfg)
		explore(first)
		res, err := first.SearchFinished(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Unified).To(BeFalse())

		second := newListener(cfg)
		explore(second)
		res, err = second.SearchFinished(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Unified).To(BeTrue())
		Expect(res.Policy.CountsForChoice(0)).To(Equal(6))

		rec, err := store.Get(ctx, "sort")
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Observations).To(Equal(6))
	})

	It("keeps the new policy when the stored one cannot be unified", func() {
		Expect(store.Put(ctx, &storage.Record{Key: "sort", Kind: "stub", Data: []byte("{}")})).To(Succeed())

		l := newListener(analysis.Config{Serialize: true, Unify: true, Storage: store})
		explore(l)
		res, err := l.SearchFinished(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Unified).To(BeFalse())
		Expect(res.Failures).To(HaveLen(1))
		Expect(res.Saved).To(BeTrue())
		Expect(res.Policy.CountsForChoice(0)).To(Equal(3))
	})

	It("reports storage failures without losing the result", func() {
		l := newListener(analysis.Config{Serialize: true, Storage: brokenDriver{inmemory.NewDriver()}})
		explore(l)

		res, err := l.SearchFinished(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Saved).To(BeFalse())
		Expect(res.Failures).To(HaveLen(1))
		Expect(res.Failures[0]).To(MatchError("disk full"))
		Expect(res.Champion.Cost()).To(Equal(int64(12)))
		Expect(res.Policy).NotTo(BeNil())
	})

	It("exports the champion with its costs", func() {
		dir := filepath.Join(GinkgoT().TempDir(), "vis")
		l := newListener(analysis.Config{OutputDir: dir, ShowCosts: true})
		explore(l)

		res, err := l.SearchFinished(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.PathFile).To(Equal(filepath.Join(dir, "wcpath_sort.txt")))

		data, err := os.ReadFile(res.PathFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("decisions: 3"))
		Expect(string(data)).To(MatchRegexp(`2  sort@12:0\s+cost=5`))
	})

	It("reports export failures", func() {
		file := filepath.Join(GinkgoT().TempDir(), "blocked")
		Expect(os.WriteFile(file, nil, 0o644)).To(Succeed())

		l := newListener(analysis.Config{OutputDir: file})
		explore(l)

		res, err := l.SearchFinished(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.PathFile).To(BeEmpty())
		Expect(res.Failures).To(HaveLen(1))
	})
})
