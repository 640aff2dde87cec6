package export_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/worstcase/pkg/cost"
	"github.com/papercomputeco/worstcase/pkg/export"
	"github.com/papercomputeco/worstcase/pkg/path"
	"github.com/papercomputeco/worstcase/pkg/policy"
)

var (
	br = path.Branch{Method: "sort", Offset: 14}
	L  = path.Decision{Branch: br, Choice: 0}
	R  = path.Decision{Branch: br, Choice: 1}
)

var _ = Describe("PathFileName", func() {
	It("joins sorted simple names", func() {
		Expect(export.PathFileName([]string{"a.B.sort(I)V", "insert"})).To(Equal("wcpath_insertsort.txt"))
	})
})

var _ = Describe("RenderPath", func() {
	p := path.New([]path.Decision{L, R}, cost.State{Model: cost.ModelDepth, Cost: 2})

	It("renders a plain path", func() {
		var buf bytes.Buffer
		Expect(export.RenderPath(&buf, p, nil)).To(Succeed())
		Expect(buf.String()).To(Equal(p.String()))
	})

	It("annotates decisions with costs", func() {
		var buf bytes.Buffer
		Expect(export.RenderPath(&buf, p, []int64{0, 1})).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("decisions: 2"))
		Expect(buf.String()).To(MatchRegexp(`1  sort@14:1\s+cost=1`))
	})

	It("handles a missing path", func() {
		var buf bytes.Buffer
		Expect(export.RenderPath(&buf, nil, nil)).To(Succeed())
		Expect(buf.String()).To(Equal("no worst-case path\n"))
	})
})

var _ = Describe("WritePath", func() {
	It("creates the directory and the file", func() {
		dir := filepath.Join(GinkgoT().TempDir(), "out", "paths")
		p := path.New([]path.Decision{L}, cost.State{Model: cost.ModelDepth, Cost: 1})

		target, err := export.WritePath(dir, []string{"sort"}, p, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(target).To(Equal(filepath.Join(dir, "wcpath_sort.txt")))

		data, err := os.ReadFile(target)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(p.String()))
	})

	It("fails when the directory is a file", func() {
		file := filepath.Join(GinkgoT().TempDir(), "blocked")
		Expect(os.WriteFile(file, nil, 0o644)).To(Succeed())

		_, err := export.WritePath(file, []string{"sort"}, nil, nil)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("WritePolicy", func() {
	It("dumps a history policy with its digest", func() {
		gen, err := policy.NewGenerator(policy.GeneratorHistory, policy.GeneratorOptions{HistorySize: 1})
		Expect(err).NotTo(HaveOccurred())
		pol, err := gen.Generate(nil, path.New([]path.Decision{L, L}, cost.State{}))
		Expect(err).NotTo(HaveOccurred())

		var buf bytes.Buffer
		Expect(export.WritePolicy(&buf, pol)).To(Succeed())
		out := buf.String()
		Expect(out).To(ContainSubstring("kind: history"))
		Expect(out).To(ContainSubstring("max history: 1"))
		Expect(out).To(MatchRegexp(`digest: [0-9a-f]{64}`))
		Expect(out).To(ContainSubstring("history trie: max history 1"))
	})
})
