package limits_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/sendguard/internal/limits"
)

var _ = Describe("Normalize", func() {
	It("keeps valid limits unchanged", func() {
		in := limits.SendLimits{TokensPerMinute: 10, BucketSize: 10, DailyMax: 100, HourlyMax: 50}
		Expect(limits.Normalize(in)).To(Equal(in))
	})

	It("clamps fields to the absolute maxima", func() {
		out := limits.Normalize(limits.SendLimits{
			TokensPerMinute: 500,
			BucketSize:      500,
			DailyMax:        50000,
			HourlyMax:       5000,
		})

		Expect(out).To(Equal(limits.SendLimits{
			TokensPerMinute: limits.MaxTokensPerMinute,
			BucketSize:      limits.MaxBucketSize,
			DailyMax:        limits.MaxDailyMax,
			HourlyMax:       limits.MaxHourlyMax,
		}))
	})

	It("floors negative values to zero", func() {
		out := limits.Normalize(limits.SendLimits{TokensPerMinute: -1, BucketSize: -5, DailyMax: -10, HourlyMax: -3})
		Expect(out.IsZero()).To(BeTrue())
	})

	It("clamps hourly down to daily", func() {
		out := limits.Normalize(limits.SendLimits{TokensPerMinute: 6, BucketSize: 10, DailyMax: 40, HourlyMax: 60})
		Expect(out.HourlyMax).To(Equal(40))
	})

	It("zeroes hourly when daily is zero", func() {
		out := limits.Normalize(limits.SendLimits{TokensPerMinute: 6, BucketSize: 10, DailyMax: 0, HourlyMax: 60})
		Expect(out.HourlyMax).To(BeZero())
	})

	It("zeroes the bucket when the rate is zero", func() {
		out := limits.Normalize(limits.SendLimits{TokensPerMinute: 0, BucketSize: 10, DailyMax: 100, HourlyMax: 10})
		Expect(out.BucketSize).To(BeZero())
	})

	DescribeTable("seeds an empty bucket from the rate",
		func(tpm, want int) {
			out := limits.Normalize(limits.SendLimits{TokensPerMinute: tpm, DailyMax: 100, HourlyMax: 10})
			Expect(out.BucketSize).To(Equal(want))
		},
		Entry("slow rate", 3, 3),
		Entry("fast rate capped at default bucket", 25, limits.DefaultBucketSize),
	)

	It("always satisfies the invariants", func() {
		for tpm := -2; tpm <= 40; tpm += 7 {
			for bucket := -2; bucket <= 70; bucket += 9 {
				for daily := -5; daily <= 1300; daily += 211 {
					for hourly := -5; hourly <= 400; hourly += 67 {
						out := limits.Normalize(limits.SendLimits{
							TokensPerMinute: tpm,
							BucketSize:      bucket,
							DailyMax:        daily,
							HourlyMax:       hourly,
						})

						Expect(out.HourlyMax).To(BeNumerically("<=", out.DailyMax))

						if out.TokensPerMinute == 0 {
							Expect(out.BucketSize).To(BeZero())
						}

						Expect(limits.Normalize(out)).To(Equal(out))
					}
				}
			}
		}
	})
})

var _ = Describe("SendLimits helpers", func() {
	It("reports any zero field", func() {
		Expect(limits.Defaults().AnyZero()).To(BeFalse())
		Expect(limits.SendLimits{TokensPerMinute: 1, BucketSize: 1, DailyMax: 1}.AnyZero()).To(BeTrue())
	})

	It("falls back to defaults for nil limits", func() {
		Expect(limits.OrDefaults(nil)).To(Equal(limits.Defaults()))

		custom := limits.SendLimits{TokensPerMinute: 2, BucketSize: 2, DailyMax: 20, HourlyMax: 5}
		Expect(limits.OrDefaults(&custom)).To(Equal(custom))
	})
})
