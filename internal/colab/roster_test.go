package colab_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/travel-agency/internal/colab"
)

var _ = Describe("Roster", func() {
	userIDs := func(e colab.RosterEntry) []int64 {
		ids := make([]int64, len(e.Users))
		for i, u := range e.Users {
			ids[i] = u.ID
		}
		return ids
	}

	Describe("BuildRoster", func() {
		It("should grant every profile user every profile module", func() {
			// Given
			profiles := []colab.Profile{
				{ID: 1, Modules: []colab.Module{module(ticketing), module(hotel)}, Users: staff(u1, u2)},
			}

			// When
			roster := colab.BuildRoster(profiles)

			// Then
			Expect(roster.IsEligible(ticketing, u1)).To(BeTrue())
			Expect(roster.IsEligible(ticketing, u2)).To(BeTrue())
			Expect(roster.IsEligible(hotel, u1)).To(BeTrue())
			Expect(roster.IsEligible(visa, u1)).To(BeFalse())
		})

		It("should union users across profiles without duplicates, keeping first-seen order", func() {
			profiles := []colab.Profile{
				{ID: 1, Modules: []colab.Module{module(hotel)}, Users: staff(u2, u1)},
				{ID: 2, Modules: []colab.Module{module(hotel)}, Users: staff(u1, u3)},
			}

			roster := colab.BuildRoster(profiles)

			entry, ok := roster.Entry(hotel)
			Expect(ok).To(BeTrue())
			Expect(userIDs(entry)).To(Equal([]int64{u2, u1, u3}))
		})

		It("should skip profiles without modules or without users", func() {
			profiles := []colab.Profile{
				{ID: 1, Modules: []colab.Module{module(visa)}},
				{ID: 2, Users: staff(u1)},
			}

			roster := colab.BuildRoster(profiles)

			Expect(roster.Entries()).To(BeEmpty())
			_, ok := roster.Entry(visa)
			Expect(ok).To(BeFalse())
		})

		It("should order entries by module name then ID", func() {
			profiles := []colab.Profile{
				{ID: 1, Modules: []colab.Module{module(visa), module(ticketing), {ID: 9, Name: "Hotel"}, module(hotel)}, Users: staff(u1)},
			}

			modules := colab.BuildRoster(profiles).Modules()

			Expect(modules).To(Equal([]colab.Module{
				{ID: hotel, Name: "Hotel"},
				{ID: 9, Name: "Hotel"},
				module(ticketing),
				module(visa),
			}))
		})

		It("should not let callers mutate the roster through Entries", func() {
			roster := colab.BuildRoster([]colab.Profile{
				{ID: 1, Modules: []colab.Module{module(hotel)}, Users: staff(u1)},
			})

			entries := roster.Entries()
			entries[0].Users[0].ID = u9

			Expect(roster.IsEligible(hotel, u1)).To(BeTrue())
			Expect(roster.IsEligible(hotel, u9)).To(BeFalse())
		})

		It("should return an empty roster for no profiles", func() {
			Expect(colab.BuildRoster(nil).Entries()).To(BeEmpty())
		})
	})

	Describe("Find", func() {
		var roster *colab.Roster

		BeforeEach(func() {
			roster = colab.BuildRoster([]colab.Profile{
				{ID: 1, Modules: []colab.Module{module(ticketing), module(hotel)}, Users: staff(u1)},
			})
		})

		It("should resolve a module by ID", func() {
			m, ok := roster.Find("2")
			Expect(ok).To(BeTrue())
			Expect(m).To(Equal(module(hotel)))
		})

		It("should resolve a module by name, ignoring case", func() {
			m, ok := roster.Find(" ticketing ")
			Expect(ok).To(BeTrue())
			Expect(m.ID).To(Equal(ticketing))
		})

		It("should not resolve modules outside the roster", func() {
			_, ok := roster.Find("3")
			Expect(ok).To(BeFalse())
			_, ok = roster.Find("Visa")
			Expect(ok).To(BeFalse())
		})
	})
})
