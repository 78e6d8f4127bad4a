package health_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/sendguard/internal/health"
	"github.com/smykla-skalski/sendguard/internal/limits"
	"github.com/smykla-skalski/sendguard/internal/session"
	"github.com/smykla-skalski/sendguard/pkg/config"
)

func ago(now time.Time, d time.Duration) *time.Time {
	t := now.Add(-d)

	return &t
}

var _ = Describe("Compute", func() {
	var (
		now  time.Time
		rec  *session.Session
		opts health.Options
	)

	BeforeEach(func() {
		now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		rec = session.New("s1", limits.Defaults(), now.Add(-48*time.Hour))
		opts = health.Options{Now: now}
	})

	Context("without signals", func() {
		It("is unknown for an unrecognized status", func() {
			rec.Status = "weird"

			res := health.Compute(rec, session.RecentStats{}, opts)
			Expect(res.Status).To(Equal(session.HealthUnknown))
			Expect(res.Score).To(Equal(health.ScoreUnknown))
			Expect(res.Reason).To(Equal(health.ReasonNoSignals))
		})

		It("is healthy when connected", func() {
			rec.Status = "Connected"

			res := health.Compute(rec, session.RecentStats{Sent24h: 50, Delivered24h: 50, Read24h: 40}, opts)
			Expect(res.Status).To(Equal(session.HealthHealthy))
			Expect(res.Score).To(Equal(health.ScoreHealthy))
			Expect(res.UpdatedAt).To(Equal(now))
		})

		It("warns while initializing", func() {
			res := health.Compute(rec, session.RecentStats{}, opts)
			Expect(res.Status).To(Equal(session.HealthWarning))
			Expect(res.Score).To(Equal(health.ScoreTransitional))
			Expect(res.Reason).To(Equal(health.ReasonNotConnected))
		})

		It("warns with a lower score when disconnected", func() {
			rec.Status = "disconnected"

			res := health.Compute(rec, session.RecentStats{}, opts)
			Expect(res.Status).To(Equal(session.HealthWarning))
			Expect(res.Score).To(Equal(health.ScoreDisconnected))
		})
	})

	Context("cooldown trigger", func() {
		It("cools down on an auth failure pattern", func() {
			rec.Status = "auth_failed"
			rec.AuthFailureCount = 2
			rec.LastAuthFailureAt = ago(now, time.Minute)

			res := health.Compute(rec, session.RecentStats{}, opts)
			Expect(res.Status).To(Equal(session.HealthCooldown))
			Expect(res.Score).To(Equal(health.ScoreCooldown))
			Expect(res.CooldownUntil).NotTo(BeNil())
			Expect(res.CooldownUntil.After(now)).To(BeTrue())
			Expect(res.StrikeCount).To(BeNumerically(">=", 1))
			Expect(res.LastStrikeReason).To(Equal(health.StrikeAuthFailurePattern))
			Expect(res.StrikeAdded).To(BeTrue())
		})

		It("uses the reset reason for a stuck reset", func() {
			rec.Status = "reconnecting"
			rec.ResetAuthCount = 1
			rec.LastResetAuthAt = ago(now, 5*time.Minute)

			res := health.Compute(rec, session.RecentStats{}, opts)
			Expect(res.Status).To(Equal(session.HealthCooldown))
			Expect(res.LastStrikeReason).To(Equal(health.StrikeResetAuthTimeout))
		})

		It("ignores resets outside the window", func() {
			rec.Status = "reconnecting"
			rec.ResetAuthCount = 1
			rec.LastResetAuthAt = ago(now, 30*time.Minute)

			res := health.Compute(rec, session.RecentStats{}, opts)
			Expect(res.Triggered).To(BeFalse())
			Expect(res.Status).To(Equal(session.HealthWarning))
		})

		It("honors a forced cooldown with a custom reason", func() {
			rec.Status = "connected"
			opts.ForceCooldown = true
			opts.StrikeReason = "operator"

			res := health.Compute(rec, session.RecentStats{}, opts)
			Expect(res.Status).To(Equal(session.HealthCooldown))
			Expect(res.LastStrikeReason).To(Equal("operator"))
			Expect(*res.CooldownUntil).To(Equal(now.Add(24 * time.Hour)))
		})

		It("never shortens an existing cooldown", func() {
			later := now.Add(48 * time.Hour)
			rec.CooldownUntil = &later
			opts.ForceCooldown = true

			res := health.Compute(rec, session.RecentStats{}, opts)
			Expect(*res.CooldownUntil).To(Equal(later))
		})

		It("does not modify the input record", func() {
			rec.Status = "auth_failed"
			rec.AuthFailureCount = 3
			rec.LastAuthFailureAt = ago(now, time.Minute)

			health.Compute(rec, session.RecentStats{}, opts)
			Expect(rec.StrikeCount).To(BeZero())
			Expect(rec.CooldownUntil).To(BeNil())
		})
	})

	Context("strike dedup", func() {
		BeforeEach(func() {
			rec.Status = "auth_failed"
			rec.AuthFailureCount = 2
			rec.LastAuthFailureAt = ago(now, time.Minute)
		})

		It("counts the same reason once within the window", func() {
			first := health.Compute(rec, session.RecentStats{}, opts)
			first.Apply(rec)
			Expect(rec.StrikeCount).To(Equal(1))

			opts.Now = now.Add(30 * time.Minute)
			second := health.Compute(rec, session.RecentStats{}, opts)
			Expect(second.StrikeCount).To(Equal(1))
			Expect(second.StrikeAdded).To(BeFalse())
			Expect(second.Triggered).To(BeTrue())
			Expect(*second.CooldownUntil).To(Equal(opts.Now.Add(24 * time.Hour)))
		})

		It("counts again after the window", func() {
			health.Compute(rec, session.RecentStats{}, opts).Apply(rec)

			opts.Now = now.Add(90 * time.Minute)
			rec.LastAuthFailureAt = ago(opts.Now, time.Minute)

			res := health.Compute(rec, session.RecentStats{}, opts)
			Expect(res.StrikeCount).To(Equal(2))
			Expect(res.StrikeAdded).To(BeTrue())
		})

		It("counts again for a different reason", func() {
			health.Compute(rec, session.RecentStats{}, opts).Apply(rec)

			opts.Now = now.Add(10 * time.Minute)
			opts.StrikeReason = "manual"

			res := health.Compute(rec, session.RecentStats{}, opts)
			Expect(res.StrikeCount).To(Equal(2))
			Expect(res.LastStrikeReason).To(Equal("manual"))
		})
	})

	Context("blocked", func() {
		It("is terminal once strikes reach the threshold", func() {
			rec.StrikeCount = 5
			rec.Status = "connected"

			res := health.Compute(rec, session.RecentStats{Sent24h: 100, Delivered24h: 100, Read24h: 90}, opts)
			Expect(res.Status).To(Equal(session.HealthBlocked))
			Expect(res.Score).To(Equal(health.ScoreBlocked))
			Expect(res.Reason).To(Equal(health.ReasonBlocked))
		})

		It("respects a configured threshold", func() {
			three := 3
			rec.StrikeCount = 3
			opts.Rules = health.RulesFromConfig(&config.HealthConfig{BlockStrikes: &three})

			res := health.Compute(rec, session.RecentStats{}, opts)
			Expect(res.Status).To(Equal(session.HealthBlocked))
		})
	})

	Context("lazy cooldown lapse", func() {
		It("clears a cooldown that has passed", func() {
			rec.Status = "connected"
			rec.CooldownUntil = ago(now, time.Minute)

			res := health.Compute(rec, session.RecentStats{}, opts)
			Expect(res.CooldownUntil).To(BeNil())
			Expect(res.Status).To(Equal(session.HealthHealthy))
		})

		It("keeps a pending cooldown", func() {
			rec.Status = "connected"
			until := now.Add(time.Hour)
			rec.CooldownUntil = &until

			res := health.Compute(rec, session.RecentStats{}, opts)
			Expect(res.Status).To(Equal(session.HealthCooldown))
			Expect(*res.CooldownUntil).To(Equal(until))
		})
	})

	Context("risk signals", func() {
		BeforeEach(func() {
			rec.Status = "connected"
		})

		DescribeTable("classifies as risky",
			func(mutate func(*session.Session), stats session.RecentStats, reason string) {
				mutate(rec)

				res := health.Compute(rec, stats, opts)
				Expect(res.Status).To(Equal(session.HealthRisky))
				Expect(res.Score).To(Equal(health.ScoreRisky))
				Expect(res.Reason).To(Equal(reason))
			},
			Entry("failed ratio",
				func(*session.Session) {},
				session.RecentStats{Sent24h: 20, Failed24h: 7},
				health.ReasonDeliveryFailures),
			Entry("failed count",
				func(*session.Session) {},
				session.RecentStats{Sent24h: 200, Failed24h: 15, Delivered24h: 185, Read24h: 100},
				health.ReasonDeliveryFailures),
			Entry("disconnect burst",
				func(s *session.Session) {
					s.DisconnectCount = 3
					s.LastDisconnectAt = ago(now, time.Hour)
				},
				session.RecentStats{},
				health.ReasonDisconnectBurst),
		)

		It("does not count a small sample as a high failure ratio", func() {
			res := health.Compute(rec, session.RecentStats{Sent24h: 10, Failed24h: 9}, opts)
			Expect(res.Signals.DeliveryFailuresHigh).To(BeFalse())
			Expect(res.Status).To(Equal(session.HealthHealthy))
		})

		It("flags excessive reconnects when not connected", func() {
			rec.Status = "disconnected"
			rec.ReconnectCount = 5

			res := health.Compute(rec, session.RecentStats{}, opts)
			Expect(res.Status).To(Equal(session.HealthRisky))
			Expect(res.Reason).To(Equal(health.ReasonExcessiveReconnects))
		})

		It("warns on a low read ratio", func() {
			res := health.Compute(rec, session.RecentStats{Sent24h: 20, Delivered24h: 20, Read24h: 3}, opts)
			Expect(res.Signals.ReadRatioLow).To(BeTrue())
			Expect(res.Status).To(Equal(session.HealthWarning))
			Expect(res.Score).To(Equal(health.ScoreTransitional))
			Expect(res.Reason).To(Equal(health.ReasonLowReadRatio))
		})

		It("treats negative stats as zero", func() {
			res := health.Compute(rec, session.RecentStats{Sent24h: -5, Failed24h: -20}, opts)
			Expect(res.Signals.FailedRatio).To(BeZero())
			Expect(res.Status).To(Equal(session.HealthHealthy))
		})
	})

	It("applies the result onto the record", func() {
		rec.Status = "auth_failed"
		rec.AuthFailureCount = 2
		rec.LastAuthFailureAt = ago(now, time.Minute)

		health.Compute(rec, session.RecentStats{}, opts).Apply(rec)
		Expect(rec.HealthStatus).To(Equal(session.HealthCooldown))
		Expect(rec.HealthScore).To(Equal(health.ScoreCooldown))
		Expect(rec.HealthReason).To(Equal(health.ReasonCooldown))
		Expect(*rec.HealthUpdatedAt).To(Equal(now))
		Expect(rec.StrikeCount).To(Equal(1))
		Expect(*rec.LastStrikeAt).To(Equal(now))
	})
})
