package config_test

import (
	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internalconfig "github.com/smykla-skalski/sendguard/internal/config"
	"github.com/smykla-skalski/sendguard/pkg/config"
)

func intPtr(v int) *int { return &v }

var _ = Describe("Validator", func() {
	var v *internalconfig.Validator

	BeforeEach(func() {
		v = internalconfig.NewValidator()
	})

	It("accepts the defaults", func() {
		Expect(v.Validate(internalconfig.DefaultConfig())).To(Succeed())
	})

	It("accepts an empty config", func() {
		Expect(v.Validate(&config.Config{})).To(Succeed())
	})

	It("rejects nil", func() {
		Expect(errors.Is(v.Validate(nil), internalconfig.ErrInvalidConfig)).To(BeTrue())
	})

	It("counts every failure", func() {
		cfg := internalconfig.DefaultConfig()
		cfg.Limits.DailyMax = intPtr(-1)
		cfg.Health.BlockStrikes = intPtr(0)
		cfg.Scheduler.MaxWorkers = intPtr(0)

		err := v.Validate(cfg)
		Expect(errors.Is(err, internalconfig.ErrInvalidConfig)).To(BeTrue())
		// daily_max < 0, hourly_max > daily_max, block_strikes, max_workers
		Expect(err.Error()).To(ContainSubstring("4 error(s)"))
	})

	DescribeTable("single failures",
		func(mutate func(*config.Config)) {
			cfg := internalconfig.DefaultConfig()
			mutate(cfg)

			err := v.Validate(cfg)
			Expect(errors.Is(err, internalconfig.ErrInvalidConfig)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("1 error(s)"))
		},
		Entry("hourly above daily", func(c *config.Config) { c.Limits.HourlyMax = intPtr(201) }),
		Entry("negative bucket size", func(c *config.Config) { c.Limits.BucketSize = intPtr(-2) }),
		Entry("negative cooldown", func(c *config.Config) { c.Health.Cooldown = config.Duration(-1) }),
		Entry("negative interval", func(c *config.Config) { c.Policy.IncreaseInterval = config.Duration(-1) }),
		Entry("negative audit size", func(c *config.Config) { c.Audit.MaxSizeMB = intPtr(-1) }),
		Entry("negative audit backups", func(c *config.Config) { c.Audit.MaxBackups = intPtr(-1) }),
		Entry("future version", func(c *config.Config) { c.Version = 2 }),
	)
})
