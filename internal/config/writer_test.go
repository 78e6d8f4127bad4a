package config_test

import (
	"os"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internalconfig "github.com/smykla-skalski/sendguard/internal/config"
	"github.com/smykla-skalski/sendguard/internal/schema"
)

var _ = Describe("Writer", func() {
	var (
		homeDir string
		workDir string
		writer  *internalconfig.Writer
	)

	BeforeEach(func() {
		homeDir = GinkgoT().TempDir()
		workDir = GinkgoT().TempDir()
		writer = internalconfig.NewWriterWithDirs(homeDir, workDir)
	})

	It("writes a config the loader reads back", func() {
		cfg := internalconfig.DefaultConfig()
		cfg.Limits.DailyMax = intPtr(150)

		Expect(writer.WriteGlobal(cfg)).To(Succeed())
		Expect(writer.IsGlobalConfigExists()).To(BeTrue())

		loaded, err := internalconfig.NewKoanfLoaderWithDirs(homeDir, workDir).Load(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.GetLimits().GetDailyMax()).To(Equal(150))
		Expect(loaded.GetHealth().GetCooldown()).To(Equal(cfg.GetHealth().GetCooldown()))
	})

	It("prepends the schema directive", func() {
		Expect(writer.WriteProject(internalconfig.DefaultConfig())).To(Succeed())

		data, err := os.ReadFile(writer.ProjectConfigPath())
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.SplitN(string(data), "\n", 2)[0]).To(Equal(schema.SchemaDirective()))
		Expect(string(data)).To(ContainSubstring("24h0m0s"))
	})

	It("writes files readable only by the owner", func() {
		Expect(writer.WriteProject(internalconfig.DefaultConfig())).To(Succeed())

		info, err := os.Stat(writer.ProjectConfigPath())
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
	})

	It("rejects a nil config", func() {
		Expect(writer.WriteGlobal(nil)).To(MatchError(internalconfig.ErrInvalidConfig))
		Expect(writer.IsGlobalConfigExists()).To(BeFalse())
	})

	It("backs up an existing file", func() {
		Expect(writer.WriteGlobal(internalconfig.DefaultConfig())).To(Succeed())

		now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

		backup, err := writer.Backup(writer.GlobalConfigPath(), now)
		Expect(err).NotTo(HaveOccurred())
		Expect(backup).To(Equal(writer.GlobalConfigPath() + ".20260304T050607.bak"))

		original, err := os.ReadFile(writer.GlobalConfigPath())
		Expect(err).NotTo(HaveOccurred())
		Expect(os.ReadFile(backup)).To(Equal(original))
	})

	It("skips the backup for a missing file", func() {
		backup, err := writer.Backup(writer.ProjectConfigPath(), time.Now())
		Expect(err).NotTo(HaveOccurred())
		Expect(backup).To(BeEmpty())
	})
})
