package session_test

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/sendguard/internal/limits"
	"github.com/smykla-skalski/sendguard/internal/session"
	"github.com/smykla-skalski/sendguard/pkg/config"
)

var _ = Describe("Store", func() {
	var (
		store       *session.Store
		tempDir     string
		stateFile   string
		currentTime time.Time
	)

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
		stateFile = filepath.Join(tempDir, "sessions.json")
		currentTime = time.Date(2025, 12, 4, 10, 30, 0, 0, time.UTC)

		store = session.NewStore(
			&config.StoreConfig{StateFile: stateFile},
			session.WithTimeFunc(func() time.Time { return currentTime }),
		)
	})

	Describe("Create", func() {
		It("stores a new record", func() {
			Expect(store.Create(session.New("s1", limits.Defaults(), currentTime))).To(Succeed())

			rec, err := store.Get("s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.ID).To(Equal("s1"))
			Expect(rec.Status).To(Equal("initializing"))
			Expect(rec.HealthStatus).To(Equal(session.HealthUnknown))
			Expect(*rec.SendLimits).To(Equal(limits.Defaults()))
		})

		It("rejects duplicates", func() {
			Expect(store.Create(session.New("s1", limits.Defaults(), currentTime))).To(Succeed())

			err := store.Create(session.New("s1", limits.Defaults(), currentTime))
			Expect(errors.Is(err, session.ErrSessionExists)).To(BeTrue())
		})

		It("rejects blank IDs", func() {
			err := store.Create(session.New("  ", limits.Defaults(), currentTime))
			Expect(err).To(MatchError(session.ErrEmptySessionID))
		})
	})

	Describe("Get", func() {
		It("returns ErrSessionNotFound for unknown IDs", func() {
			_, err := store.Get("missing")
			Expect(errors.Is(err, session.ErrSessionNotFound)).To(BeTrue())
		})

		It("hands out copies", func() {
			Expect(store.Create(session.New("s1", limits.Defaults(), currentTime))).To(Succeed())

			rec, err := store.Get("s1")
			Expect(err).NotTo(HaveOccurred())

			rec.StrikeCount = 4
			rec.SendLimits.DailyMax = 1

			again, err := store.Get("s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(again.StrikeCount).To(BeZero())
			Expect(again.SendLimits.DailyMax).To(Equal(limits.DefaultDailyMax))
		})
	})

	Describe("Put and Delete", func() {
		It("replaces a record", func() {
			rec := session.New("s1", limits.Defaults(), currentTime)
			Expect(store.Put(rec)).To(Succeed())

			rec.StrikeCount = 2
			Expect(store.Put(rec)).To(Succeed())

			got, err := store.Get("s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.StrikeCount).To(Equal(2))
		})

		It("deletes a record", func() {
			Expect(store.Put(session.New("s1", limits.Defaults(), currentTime))).To(Succeed())
			Expect(store.Delete("s1")).To(Succeed())
			Expect(store.Len()).To(BeZero())

			err := store.Delete("s1")
			Expect(errors.Is(err, session.ErrSessionNotFound)).To(BeTrue())
		})
	})

	Describe("List", func() {
		It("returns records sorted by ID", func() {
			for _, id := range []string{"c", "a", "b"} {
				Expect(store.Put(session.New(id, limits.Defaults(), currentTime))).To(Succeed())
			}

			Expect(store.IDs()).To(Equal([]string{"a", "b", "c"}))

			list := store.List()
			Expect(list).To(HaveLen(3))
			Expect(list[0].ID).To(Equal("a"))
			Expect(list[2].ID).To(Equal("c"))
		})
	})

	Describe("persistence", func() {
		It("round trips records through the state file", func() {
			rec := session.New("s1", limits.Defaults(), currentTime)
			until := currentTime.Add(24 * time.Hour)
			rec.CooldownUntil = &until
			rec.HealthStatus = session.HealthCooldown
			rec.StrikeCount = 1
			rec.LastStrikeReason = "disconnectBurst"
			Expect(store.Put(rec)).To(Succeed())
			Expect(store.Save()).To(Succeed())

			_, err := os.Stat(stateFile)
			Expect(err).NotTo(HaveOccurred())

			reloaded := session.NewStore(&config.StoreConfig{StateFile: stateFile})
			Expect(reloaded.Load()).To(Succeed())

			got, err := reloaded.Get("s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.HealthStatus).To(Equal(session.HealthCooldown))
			Expect(got.StrikeCount).To(Equal(1))
			Expect(got.CooldownUntil.Equal(until)).To(BeTrue())
		})

		It("writes health status as a string", func() {
			rec := session.New("s1", limits.Defaults(), currentTime)
			rec.HealthStatus = session.HealthRisky
			Expect(store.Put(rec)).To(Succeed())
			Expect(store.Save()).To(Succeed())

			data, err := os.ReadFile(stateFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"health_status": "risky"`))
		})

		It("starts empty when the file is missing", func() {
			Expect(store.Load()).To(Succeed())
			Expect(store.Len()).To(BeZero())
		})

		It("fails on a corrupt file", func() {
			Expect(os.WriteFile(stateFile, []byte("{not json"), 0o600)).To(Succeed())
			Expect(store.Load()).To(HaveOccurred())
		})

		It("creates the parent directory", func() {
			nested := session.NewStore(&config.StoreConfig{
				StateFile: filepath.Join(tempDir, "a", "b", "sessions.json"),
			})
			Expect(nested.Save()).To(Succeed())

			_, err := os.Stat(filepath.Join(tempDir, "a", "b", "sessions.json"))
			Expect(err).NotTo(HaveOccurred())
		})
	})
})

var _ = Describe("ConnectionStatus", func() {
	DescribeTable("ParseConnectionStatus",
		func(in string, want session.ConnectionStatus) {
			Expect(session.ParseConnectionStatus(in)).To(Equal(want))
		},
		Entry("lower", "connected", session.ConnectionConnected),
		Entry("upper", "CONNECTED", session.ConnectionConnected),
		Entry("mixed with spaces", " Auth_Failed ", session.ConnectionAuthFailed),
		Entry("unrecognized", "weird", session.ConnectionUnknown),
		Entry("empty", "", session.ConnectionUnknown),
	)

	It("matches sets", func() {
		Expect(session.ConnectionReconnecting.In(
			session.ConnectionDisconnected, session.ConnectionReconnecting,
		)).To(BeTrue())
		Expect(session.ConnectionConnected.In(session.ConnectionDisconnected)).To(BeFalse())
	})
})

var _ = Describe("Session", func() {
	It("reports pending cooldowns", func() {
		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		rec := session.New("s1", limits.Defaults(), now)
		Expect(rec.InCooldown(now)).To(BeFalse())

		until := now.Add(time.Hour)
		rec.CooldownUntil = &until
		Expect(rec.InCooldown(now)).To(BeTrue())
		Expect(rec.InCooldown(now.Add(2 * time.Hour))).To(BeFalse())
	})

	It("falls back to default limits when unset", func() {
		rec := &session.Session{ID: "s1"}
		Expect(rec.Limits()).To(Equal(limits.Defaults()))
	})
})
