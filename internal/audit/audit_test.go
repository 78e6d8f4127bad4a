package audit_test

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/sendguard/internal/audit"
	"github.com/smykla-skalski/sendguard/internal/limits"
	"github.com/smykla-skalski/sendguard/pkg/config"
)

var _ = Describe("Logger", func() {
	var (
		dir         string
		logFile     string
		currentTime time.Time
		auditor     *audit.Logger
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		logFile = filepath.Join(dir, "audit.jsonl")
		currentTime = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

		auditor = audit.New(
			&config.AuditConfig{LogFile: logFile},
			audit.WithTimeFunc(func() time.Time { return currentTime }),
		)
	})

	It("appends and reads entries", func() {
		l := limits.Zero()
		strike := audit.NewEntry(audit.KindStrike, "s1", currentTime)
		strike.Reason = "auth_failure_pattern"
		strike.StrikeCount = 1

		change := audit.NewEntry(audit.KindLimitChange, "s1", currentTime)
		change.Reason = "cooldown_policy"
		change.Limits = &l

		Expect(auditor.Log(strike)).To(Succeed())
		Expect(auditor.Log(change)).To(Succeed())

		entries, err := auditor.Read()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Kind).To(Equal(audit.KindStrike))
		Expect(entries[0].ID).To(Equal(strike.ID))
		Expect(entries[1].Limits).To(Equal(&l))
	})

	It("fills in missing IDs and timestamps", func() {
		entry := &audit.Entry{Kind: audit.KindStatusChange, SessionID: "s1"}
		Expect(auditor.Log(entry)).To(Succeed())
		Expect(entry.ID).NotTo(BeEmpty())
		Expect(entry.Timestamp).To(Equal(currentTime))
	})

	It("filters by session", func() {
		Expect(auditor.Log(audit.NewEntry(audit.KindStrike, "a", currentTime))).To(Succeed())
		Expect(auditor.Log(audit.NewEntry(audit.KindStrike, "b", currentTime))).To(Succeed())

		entries, err := auditor.ReadSession("b")
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].SessionID).To(Equal("b"))
	})

	It("returns nothing for a missing file", func() {
		entries, err := auditor.Read()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("skips malformed lines", func() {
		Expect(auditor.Log(audit.NewEntry(audit.KindStrike, "a", currentTime))).To(Succeed())

		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_WRONLY, 0o600)
		Expect(err).NotTo(HaveOccurred())
		_, err = f.WriteString("garbage\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Close()).To(Succeed())

		entries, err := auditor.Read()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
	})

	It("does nothing when disabled", func() {
		disabled := false
		quiet := audit.New(&config.AuditConfig{LogFile: logFile, Enabled: &disabled})

		Expect(quiet.Log(audit.NewEntry(audit.KindStrike, "a", currentTime))).To(Succeed())

		_, err := os.Stat(logFile)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	Describe("rotation", func() {
		It("keeps at most MaxBackups rotated files", func() {
			one := 1
			auditor = audit.New(
				&config.AuditConfig{LogFile: logFile, MaxBackups: &one},
				audit.WithTimeFunc(func() time.Time { return currentTime }),
			)

			for range 3 {
				Expect(auditor.Log(audit.NewEntry(audit.KindStrike, "a", currentTime))).To(Succeed())
				Expect(auditor.Rotate()).To(Succeed())
				currentTime = currentTime.Add(time.Second)
			}

			files, err := os.ReadDir(dir)
			Expect(err).NotTo(HaveOccurred())

			var rotated []string
			for _, f := range files {
				if strings.HasPrefix(f.Name(), "audit.2025") {
					rotated = append(rotated, f.Name())
				}
			}

			Expect(rotated).To(Equal([]string{"audit.20250301-080002.jsonl"}))
		})

		It("rotates when the file reaches the size limit", func() {
			zero := 0
			auditor = audit.New(
				&config.AuditConfig{LogFile: logFile, MaxSizeMB: &zero},
				audit.WithTimeFunc(func() time.Time { return currentTime }),
			)

			Expect(auditor.Log(audit.NewEntry(audit.KindStrike, "a", currentTime))).To(Succeed())
			Expect(auditor.Log(audit.NewEntry(audit.KindStrike, "b", currentTime))).To(Succeed())

			entries, err := auditor.Read()
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].SessionID).To(Equal("b"))

			stats, err := auditor.Stats()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.BackupCount).To(Equal(1))
			Expect(stats.EntryCount).To(Equal(1))
			Expect(stats.FormatSize()).To(HaveSuffix("B"))
		})
	})
})
