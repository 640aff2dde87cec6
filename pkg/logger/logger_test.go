package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/worstcase/pkg/logger"
)

func decodeLine(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	ExpectWithOffset(1, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed)).To(Succeed())
	return parsed
}

var _ = Describe("New", func() {
	It("writes text records by default", func() {
		var buf bytes.Buffer
		log := logger.New(logger.WithWriter(&buf))
		log.Info("path finished", "cost", 12)

		Expect(buf.String()).To(ContainSubstring("path finished"))
		Expect(buf.String()).To(ContainSubstring("cost=12"))
	})

	DescribeTable("debug level",
		func(debug bool, visible bool) {
			var buf bytes.Buffer
			log := logger.New(logger.WithWriter(&buf), logger.WithDebug(debug))
			log.Debug("choice point cached")
			if visible {
				Expect(buf.String()).To(ContainSubstring("choice point cached"))
			} else {
				Expect(buf.String()).To(BeEmpty())
			}
		},
		Entry("enabled", true, true),
		Entry("disabled", false, false),
	)

	It("emits JSON with bound attributes", func() {
		var buf bytes.Buffer
		log := logger.New(logger.WithWriter(&buf), logger.WithJSON(true)).With("component", "tracker")
		log.Info("replaced champion", "cost", 7)

		parsed := decodeLine(&buf)
		Expect(parsed["msg"]).To(Equal("replaced champion"))
		Expect(parsed["component"]).To(Equal("tracker"))
		Expect(parsed["cost"]).To(BeNumerically("==", 7))
	})

	It("renders pretty output", func() {
		var buf bytes.Buffer
		log := logger.New(logger.WithWriter(&buf), logger.WithPretty(true))
		log.Warn("policy not saved")

		Expect(buf.String()).To(ContainSubstring("policy not saved"))
	})

	It("fans out to several writers", func() {
		var a, b bytes.Buffer
		logger.New(logger.WithWriters(&a, &b)).Info("search finished")

		Expect(a.String()).To(ContainSubstring("search finished"))
		Expect(b.String()).To(ContainSubstring("search finished"))
	})
})

var _ = Describe("Nop", func() {
	It("is disabled at every level", func() {
		log := logger.Nop()
		for _, lvl := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelError} {
			Expect(log.Handler().Enabled(context.Background(), lvl)).To(BeFalse())
		}
		Expect(func() { log.With("k", "v").WithGroup("g").Error("x") }).NotTo(Panic())
	})
})

var _ = Describe("Multi", func() {
	It("dispatches to every logger", func() {
		var a, b bytes.Buffer
		multi := logger.Multi(logger.New(logger.WithWriter(&a)), logger.New(logger.WithWriter(&b)))
		multi.Info("broadcast")

		Expect(a.String()).To(ContainSubstring("broadcast"))
		Expect(b.String()).To(ContainSubstring("broadcast"))
	})

	It("honours each logger's level", func() {
		var quiet, loud bytes.Buffer
		multi := logger.Multi(
			logger.New(logger.WithWriter(&quiet)),
			logger.New(logger.WithWriter(&loud), logger.WithDebug(true)),
		)
		multi.Debug("detail")

		Expect(quiet.String()).To(BeEmpty())
		Expect(loud.String()).To(ContainSubstring("detail"))
	})

	It("propagates groups", func() {
		var buf bytes.Buffer
		multi := logger.Multi(logger.New(logger.WithWriter(&buf), logger.WithJSON(true)))
		multi.WithGroup("policy").Info("saved", "key", "sort")

		group, ok := decodeLine(&buf)["policy"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(group["key"]).To(Equal("sort"))
	})
})
