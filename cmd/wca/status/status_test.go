package statuscmder_test

import (
	"bytes"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	statuscmder "github.com/papercomputeco/worstcase/cmd/wca/status"
	"github.com/papercomputeco/worstcase/pkg/dotdir"
)

var _ = Describe("status", func() {
	var configDir string

	BeforeEach(func() {
		tmpDir := GinkgoT().TempDir()
		GinkgoT().Setenv("HOME", tmpDir)
		configDir = filepath.Join(tmpDir, ".wca")
	})

	run := func(args ...string) string {
		cmd := statuscmder.NewStatusCmd()
		cmd.PersistentFlags().String("config-dir", configDir, "")
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		Expect(cmd.Execute()).To(Succeed())
		return out.String()
	}

	It("reports a missing run", func() {
		Expect(run()).To(ContainSubstring("No analysis recorded"))
	})

	Context("with a recorded run", func() {
		BeforeEach(func() {
			Expect(dotdir.NewManager().SaveLastRun(&dotdir.RunState{
				RunID:      "run-1",
				PolicyKey:  "sort",
				Model:      "depth",
				Cost:       4,
				Decisions:  4,
				Saved:      true,
				Unified:    true,
				Failures:   []string{"exporting worst-case path: permission denied"},
				FinishedAt: time.Now(),
			}, configDir)).To(Succeed())
		})

		It("shows the summary", func() {
			out := run()
			Expect(out).To(ContainSubstring("run-1"))
			Expect(out).To(ContainSubstring("depth=4"))
			Expect(out).To(ContainSubstring("sort (unified and saved)"))
			Expect(out).To(ContainSubstring("permission denied"))
		})

		It("clears the run", func() {
			run("--clear")
			Expect(run()).To(ContainSubstring("No analysis recorded"))
		})
	})
})
