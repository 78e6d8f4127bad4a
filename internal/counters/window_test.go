package counters_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/sendguard/internal/counters"
	"github.com/smykla-skalski/sendguard/internal/limits"
)

var _ = Describe("Window", func() {
	var now time.Time

	ptr := func(t time.Time) *time.Time { return &t }

	BeforeEach(func() {
		now = time.Date(2025, 11, 29, 10, 30, 0, 0, time.UTC)
	})

	Describe("Normalize", func() {
		It("rolls over windows older than their length", func() {
			w := counters.Window{
				DayCount:  150,
				DayStart:  ptr(now.Add(-25 * time.Hour)),
				HourCount: 40,
				HourStart: ptr(now.Add(-61 * time.Minute)),
			}

			out, changed := counters.Normalize(w, now)

			Expect(changed).To(BeTrue())
			Expect(out.DayCount).To(BeZero())
			Expect(out.HourCount).To(BeZero())
			Expect(*out.DayStart).To(Equal(now))
			Expect(*out.HourStart).To(Equal(now))
		})

		It("leaves a fresh window untouched", func() {
			w := counters.Window{
				DayCount:  5,
				DayStart:  ptr(now.Add(-2 * time.Hour)),
				HourCount: 2,
				HourStart: ptr(now.Add(-10 * time.Minute)),
			}

			out, changed := counters.Normalize(w, now)

			Expect(changed).To(BeFalse())
			Expect(out).To(Equal(w))
		})

		It("rolls each window independently", func() {
			w := counters.Window{
				DayCount:  5,
				DayStart:  ptr(now.Add(-2 * time.Hour)),
				HourCount: 2,
				HourStart: ptr(now.Add(-time.Hour)),
			}

			out, changed := counters.Normalize(w, now)

			Expect(changed).To(BeTrue())
			Expect(out.DayCount).To(Equal(5))
			Expect(out.HourCount).To(BeZero())
		})

		It("opens missing windows", func() {
			out, changed := counters.Normalize(counters.Window{}, now)

			Expect(changed).To(BeTrue())
			Expect(*out.DayStart).To(Equal(now))
			Expect(*out.HourStart).To(Equal(now))
		})

		It("floors negative counts", func() {
			w := counters.Window{
				DayCount:  -3,
				DayStart:  ptr(now.Add(-time.Minute)),
				HourCount: -1,
				HourStart: ptr(now.Add(-time.Minute)),
			}

			out, changed := counters.Normalize(w, now)

			Expect(changed).To(BeTrue())
			Expect(out.DayCount).To(BeZero())
			Expect(out.HourCount).To(BeZero())
		})
	})

	Describe("Record", func() {
		It("counts a send in both windows", func() {
			w := counters.Record(counters.Window{}, now)
			w = counters.Record(w, now.Add(time.Minute))

			Expect(w.DayCount).To(Equal(2))
			Expect(w.HourCount).To(Equal(2))
		})
	})

	Describe("CheckCaps", func() {
		l := limits.SendLimits{TokensPerMinute: 6, BucketSize: 10, DailyMax: 3, HourlyMax: 2}

		It("allows while under both caps", func() {
			res := counters.CheckCaps(counters.Record(counters.Window{}, now), l, now)

			Expect(res.Allowed).To(BeTrue())
			Expect(res.DailyRemaining).To(Equal(2))
			Expect(res.HourlyRemaining).To(Equal(1))
		})

		It("denies at the hourly cap until the hour rolls over", func() {
			w := counters.Record(counters.Record(counters.Window{}, now), now)
			res := counters.CheckCaps(w, l, now.Add(15*time.Minute))

			Expect(res.Allowed).To(BeFalse())
			Expect(res.Reason).To(Equal(counters.ReasonHourlyCap))
			Expect(res.RetryAfter).To(Equal(45 * time.Minute))
		})

		It("denies at the daily cap", func() {
			w := counters.Window{
				DayCount:  3,
				DayStart:  ptr(now.Add(-20 * time.Hour)),
				HourCount: 0,
				HourStart: ptr(now),
			}
			res := counters.CheckCaps(w, l, now)

			Expect(res.Allowed).To(BeFalse())
			Expect(res.Reason).To(Equal(counters.ReasonDailyCap))
			Expect(res.RetryAfter).To(Equal(4 * time.Hour))
		})

		It("denies everything for zero limits", func() {
			res := counters.CheckCaps(counters.Window{}, limits.Zero(), now)
			Expect(res.Allowed).To(BeFalse())
		})
	})
})
