package colab_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/travel-agency/internal/colab"
)

var _ = Describe("Selector", func() {
	var (
		roster   *colab.Roster
		selector *colab.Selector
	)

	BeforeEach(func() {
		roster = colab.BuildRoster([]colab.Profile{
			{ID: 1, Modules: []colab.Module{module(ticketing)}, Users: staff(u1, u3)},
			{ID: 2, Modules: []colab.Module{module(hotel)}, Users: staff(u2, u3)},
		})
		selector = colab.NewSelector(roster, colab.Suggestions{ticketing: u3, hotel: u9})
	})

	Describe("Activate", func() {
		It("should seed the module with its eligible suggestion", func() {
			Expect(selector.Activate(ticketing)).To(BeTrue())
			Expect(selector.Snapshot()).To(Equal([]colab.Assignment{{ModuleID: ticketing, UserID: u3}}))
		})

		It("should seed the first roster user when the suggestion is not eligible", func() {
			// Given the history suggests u9, who is not in the hotel roster
			// When
			Expect(selector.Activate(hotel)).To(BeTrue())

			// Then
			Expect(selector.Snapshot()).To(Equal([]colab.Assignment{{ModuleID: hotel, UserID: u2}}))
		})

		It("should keep the user of an already selected module", func() {
			selector.Activate(ticketing)
			Expect(selector.Reassign(ticketing, u1)).To(Succeed())

			Expect(selector.Activate(ticketing)).To(BeTrue())

			Expect(selector.Snapshot()).To(Equal([]colab.Assignment{{ModuleID: ticketing, UserID: u1}}))
		})

		It("should leave modules outside the roster unselected", func() {
			Expect(selector.Activate(visa)).To(BeFalse())
			Expect(selector.IsActive(visa)).To(BeFalse())
		})
	})

	Describe("Deactivate", func() {
		It("should remove the module from the selection", func() {
			selector.Activate(ticketing)
			selector.Activate(hotel)

			selector.Deactivate(ticketing)

			Expect(selector.IsActive(ticketing)).To(BeFalse())
			Expect(selector.Snapshot()).To(Equal([]colab.Assignment{{ModuleID: hotel, UserID: u2}}))
		})

		It("should accept modules that are not selected", func() {
			selector.Deactivate(visa)
			Expect(selector.Snapshot()).To(BeEmpty())
		})
	})

	Describe("Reassign", func() {
		It("should refuse a module that is not selected", func() {
			Expect(selector.Reassign(hotel, u3)).To(MatchError(colab.ErrModuleNotActive))
			Expect(selector.Snapshot()).To(BeEmpty())
		})

		It("should change the selected user", func() {
			selector.Activate(hotel)

			Expect(selector.Reassign(hotel, u3)).To(Succeed())

			Expect(selector.Snapshot()).To(Equal([]colab.Assignment{{ModuleID: hotel, UserID: u3}}))
		})
	})

	Describe("UseSuggestions", func() {
		It("should only affect later activations", func() {
			selector.Activate(ticketing)

			selector.UseSuggestions(colab.Suggestions{ticketing: u1, hotel: u3})
			selector.Activate(hotel)

			Expect(selector.Snapshot()).To(Equal([]colab.Assignment{
				{ModuleID: ticketing, UserID: u3},
				{ModuleID: hotel, UserID: u3},
			}))
		})
	})

	Describe("Load and Reset", func() {
		It("should replace the selection, first occurrence winning", func() {
			selector.Activate(hotel)

			selector.Load([]colab.Assignment{
				{ModuleID: ticketing, UserID: u1},
				{ModuleID: ticketing, UserID: u3},
			})

			Expect(selector.Snapshot()).To(Equal([]colab.Assignment{{ModuleID: ticketing, UserID: u1}}))
		})

		It("should clear the selection on Reset", func() {
			selector.Activate(hotel)
			selector.Reset()
			Expect(selector.Snapshot()).To(BeEmpty())
		})
	})

	It("should return the snapshot sorted by module ID", func() {
		selector.Load([]colab.Assignment{
			{ModuleID: visa, UserID: u1},
			{ModuleID: ticketing, UserID: u2},
			{ModuleID: hotel, UserID: u3},
		})

		Expect(selector.Snapshot()).To(Equal([]colab.Assignment{
			{ModuleID: ticketing, UserID: u2},
			{ModuleID: hotel, UserID: u3},
			{ModuleID: visa, UserID: u1},
		}))
	})
})
