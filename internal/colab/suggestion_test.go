package colab_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/travel-agency/internal/colab"
)

// GatedLookup routes every lookup through a ConcurrencyGate.
type GatedLookup struct {
	*MockLookup
	gate *ConcurrencyGate
}

func (l *GatedLookup) SuggestUser(ctx context.Context, moduleID, billingClientID int64) (int64, bool, error) {
	l.gate.Enter(ctx)
	defer l.gate.Leave()
	return l.MockLookup.SuggestUser(ctx, moduleID, billingClientID)
}

var _ = Describe("Suggestions", func() {
	Describe("DefaultUser", func() {
		entry := colab.RosterEntry{Module: module(hotel), Users: staff(u2, u3)}

		It("should prefer an eligible suggestion", func() {
			user, ok := colab.DefaultUser(entry, colab.Suggestions{hotel: u3})
			Expect(ok).To(BeTrue())
			Expect(user.ID).To(Equal(u3))
		})

		It("should fall back to the first eligible user when the suggestion is not eligible", func() {
			user, ok := colab.DefaultUser(entry, colab.Suggestions{hotel: u9})
			Expect(ok).To(BeTrue())
			Expect(user.ID).To(Equal(u2))
		})

		It("should fall back to the first eligible user without a suggestion", func() {
			user, ok := colab.DefaultUser(entry, nil)
			Expect(ok).To(BeTrue())
			Expect(user.ID).To(Equal(u2))
		})

		It("should report no default for a module without users", func() {
			_, ok := colab.DefaultUser(colab.RosterEntry{Module: module(visa)}, colab.Suggestions{visa: u1})
			Expect(ok).To(BeFalse())
		})
	})

	Describe("SuggestionResolver", func() {
		const (
			acme   int64 = 7
			globex int64 = 8
		)

		var (
			lookup   *MockLookup
			resolver *colab.SuggestionResolver
			modules  []colab.Module
		)

		BeforeEach(func() {
			lookup = NewMockLookup()
			resolver = colab.NewSuggestionResolver(lookup, testLogger(), 200*time.Millisecond)
			modules = []colab.Module{module(ticketing), module(hotel), module(visa)}
		})

		It("should keep found suggestions and skip empty or failed lookups", func() {
			// Given
			lookup.Returns(ticketing, acme, u1)
			lookup.Fails(hotel, acme, errors.New("history unavailable"))

			// When
			suggestions, err := resolver.Resolve(context.Background(), acme, modules)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(suggestions).To(Equal(colab.Suggestions{ticketing: u1}))
			Expect(lookup.Calls()).To(Equal(3))
			Expect(resolver.Current()).To(Equal(colab.Suggestions{ticketing: u1}))
		})

		It("should ignore non-positive user IDs", func() {
			lookup.Returns(ticketing, acme, 0)

			suggestions, err := resolver.Resolve(context.Background(), acme, modules)

			Expect(err).NotTo(HaveOccurred())
			Expect(suggestions).To(BeEmpty())
		})

		It("should treat a lookup that times out as no suggestion", func() {
			resolver = colab.NewSuggestionResolver(lookup, testLogger(), 20*time.Millisecond)
			lookup.Block(acme)

			suggestions, err := resolver.Resolve(context.Background(), acme, modules)

			Expect(err).NotTo(HaveOccurred())
			Expect(suggestions).To(BeEmpty())
		})

		It("should fail the pass when the caller cancels", func() {
			lookup.Block(acme)
			ctx, cancel := context.WithCancel(context.Background())

			done := make(chan error, 1)
			go func() {
				_, err := resolver.Resolve(ctx, acme, modules)
				done <- err
			}()
			Eventually(lookup.started).Should(Receive())
			cancel()

			Eventually(done).Should(Receive(MatchError(context.Canceled)))
		})

		It("should discard a pass overtaken by a pass for another billing client", func() {
			// Given
			lookup.Returns(ticketing, acme, u1)
			lookup.Returns(ticketing, globex, u2)
			gate := lookup.Block(acme)

			stale := make(chan error, 1)
			go func() {
				_, err := resolver.Resolve(context.Background(), acme, modules)
				stale <- err
			}()
			Eventually(lookup.started).Should(Receive(Equal(acme)))

			// When
			fresh, err := resolver.Resolve(context.Background(), globex, modules)
			close(gate)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(fresh).To(Equal(colab.Suggestions{ticketing: u2}))
			Eventually(stale).Should(Receive(MatchError(colab.ErrStaleSuggestions)))
			Expect(resolver.Current()).To(Equal(colab.Suggestions{ticketing: u2}))
		})

		It("should drop everything on Invalidate", func() {
			lookup.Returns(ticketing, acme, u1)
			_, err := resolver.Resolve(context.Background(), acme, modules)
			Expect(err).NotTo(HaveOccurred())

			resolver.Invalidate()

			Expect(resolver.Current()).To(BeEmpty())
		})

		It("should hand out copies of the resolved map", func() {
			lookup.Returns(ticketing, acme, u1)
			suggestions, err := resolver.Resolve(context.Background(), acme, modules)
			Expect(err).NotTo(HaveOccurred())

			suggestions[hotel] = u9

			Expect(resolver.Current()).NotTo(HaveKey(hotel))
		})

		It("should run the lookups of every module at once", func() {
			// Given
			modules = append(modules, module(transfer))
			lookup.Returns(visa, acme, u3)
			gated := &GatedLookup{MockLookup: lookup, gate: NewConcurrencyGate(len(modules))}
			resolver = colab.NewSuggestionResolver(gated, testLogger(), 2*time.Second)

			// When
			suggestions, err := resolver.Resolve(context.Background(), acme, modules)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(suggestions).To(Equal(colab.Suggestions{visa: u3}))
			Expect(gated.gate.Peak()).To(Equal(len(modules)))
			Expect(gated.gate.Settled()).To(Equal(len(modules)))
		})
	})
})
