package policy_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/sendguard/internal/limits"
	"github.com/smykla-skalski/sendguard/internal/policy"
	"github.com/smykla-skalski/sendguard/internal/session"
)

var _ = Describe("AdjustLimits", func() {
	var (
		now      time.Time
		rec      *session.Session
		baseline limits.SendLimits
	)

	BeforeEach(func() {
		now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		baseline = limits.SendLimits{TokensPerMinute: 10, BucketSize: 10, DailyMax: 100, HourlyMax: 50}
		rec = session.New("s1", baseline, now.Add(-72*time.Hour))
	})

	It("reduces risky sessions", func() {
		rec.HealthStatus = session.HealthRisky

		res := policy.AdjustLimits(rec, policy.Options{Now: now})
		Expect(res.Changed).To(BeTrue())
		Expect(res.SendLimits).To(Equal(limits.SendLimits{
			TokensPerMinute: 5, BucketSize: 6, DailyMax: 50, HourlyMax: 25,
		}))
		Expect(res.LimitChangeReason).To(Equal(policy.ReasonRiskyReduce))
		Expect(*res.LastLimitUpdateAt).To(Equal(now))
	})

	It("seeds a risky reduction from defaults when the rate is zero", func() {
		rec.HealthStatus = session.HealthRisky
		rec.SendLimits = &limits.SendLimits{}

		res := policy.AdjustLimits(rec, policy.Options{Now: now})
		Expect(res.SendLimits).To(Equal(limits.SendLimits{
			TokensPerMinute: 3, BucketSize: 6, DailyMax: 100, HourlyMax: 30,
		}))
	})

	It("zeroes limits during cooldown", func() {
		rec.HealthStatus = session.HealthCooldown
		until := now.Add(time.Hour)
		rec.CooldownUntil = &until

		res := policy.AdjustLimits(rec, policy.Options{Now: now})
		Expect(res.SendLimits.TokensPerMinute).To(BeZero())
		Expect(res.SendLimits.DailyMax).To(BeZero())
		Expect(res.SendLimits.IsZero()).To(BeTrue())
		Expect(res.LimitChangeReason).To(Equal(policy.ReasonCooldown))
	})

	It("zeroes limits when a cooldown is pending whatever the status", func() {
		rec.HealthStatus = session.HealthHealthy
		until := now.Add(time.Hour)
		rec.CooldownUntil = &until

		res := policy.AdjustLimits(rec, policy.Options{Now: now})
		Expect(res.SendLimits.IsZero()).To(BeTrue())
		Expect(res.LimitChangeReason).To(Equal(policy.ReasonCooldown))
	})

	It("zeroes limits for blocked sessions", func() {
		rec.HealthStatus = session.HealthBlocked

		res := policy.AdjustLimits(rec, policy.Options{Now: now})
		Expect(res.SendLimits.IsZero()).To(BeTrue())
		Expect(res.LimitChangeReason).To(Equal(policy.ReasonBlocked))
	})

	Context("warning and unknown", func() {
		It("restores defaults when a field is zero", func() {
			rec.HealthStatus = session.HealthWarning
			rec.SendLimits = &limits.SendLimits{}

			res := policy.AdjustLimits(rec, policy.Options{Now: now})
			Expect(res.Changed).To(BeTrue())
			Expect(res.SendLimits).To(Equal(limits.Defaults()))
			Expect(res.LimitChangeReason).To(Equal(policy.ReasonRestoreDefaults))
		})

		It("leaves complete limits alone", func() {
			rec.HealthStatus = session.HealthUnknown
			earlier := now.Add(-time.Hour)
			rec.LastLimitUpdateAt = &earlier
			rec.LimitChangeReason = "manual_override"

			res := policy.AdjustLimits(rec, policy.Options{Now: now})
			Expect(res.Changed).To(BeFalse())
			Expect(res.SendLimits).To(Equal(baseline))
			Expect(res.LastLimitUpdateAt).To(Equal(&earlier))
			Expect(res.LimitChangeReason).To(Equal("manual_override"))
		})
	})

	Context("healthy", func() {
		BeforeEach(func() {
			rec.HealthStatus = session.HealthHealthy
		})

		It("increases by 15% rounding up when never adjusted", func() {
			res := policy.AdjustLimits(rec, policy.Options{Now: now})
			Expect(res.Changed).To(BeTrue())
			Expect(res.SendLimits).To(Equal(limits.SendLimits{
				TokensPerMinute: 12, BucketSize: 12, DailyMax: 115, HourlyMax: 58,
			}))
			Expect(res.LimitChangeReason).To(Equal(policy.ReasonHealthyIncrease))
		})

		It("waits for the increase interval", func() {
			recent := now.Add(-23 * time.Hour)
			rec.LastLimitUpdateAt = &recent

			res := policy.AdjustLimits(rec, policy.Options{Now: now})
			Expect(res.Changed).To(BeFalse())
			Expect(res.SendLimits).To(Equal(baseline))
		})

		It("increases after the interval", func() {
			old := now.Add(-24 * time.Hour)
			rec.LastLimitUpdateAt = &old

			res := policy.AdjustLimits(rec, policy.Options{Now: now})
			Expect(res.Changed).To(BeTrue())
		})

		It("honors a custom interval", func() {
			recent := now.Add(-2 * time.Hour)
			rec.LastLimitUpdateAt = &recent

			res := policy.AdjustLimits(rec, policy.Options{Now: now, IncreaseInterval: time.Hour})
			Expect(res.Changed).To(BeTrue())
		})

		It("caps growth at the maxima", func() {
			rec.SendLimits = &limits.SendLimits{
				TokensPerMinute: limits.MaxTokensPerMinute,
				BucketSize:      limits.MaxBucketSize,
				DailyMax:        limits.MaxDailyMax,
				HourlyMax:       limits.MaxHourlyMax,
			}

			res := policy.AdjustLimits(rec, policy.Options{Now: now})
			Expect(res.Changed).To(BeFalse())
			Expect(res.SendLimits.TokensPerMinute).To(Equal(limits.MaxTokensPerMinute))
		})
	})

	It("does not modify the input record", func() {
		rec.HealthStatus = session.HealthRisky

		policy.AdjustLimits(rec, policy.Options{Now: now})
		Expect(*rec.SendLimits).To(Equal(baseline))
	})

	It("applies the result onto the record", func() {
		rec.HealthStatus = session.HealthBlocked

		policy.AdjustLimits(rec, policy.Options{Now: now}).Apply(rec)
		Expect(rec.SendLimits.IsZero()).To(BeTrue())
		Expect(rec.LimitChangeReason).To(Equal(policy.ReasonBlocked))
		Expect(*rec.LastLimitUpdateAt).To(Equal(now))
	})
})
