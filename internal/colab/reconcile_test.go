package colab_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/travel-agency/internal/colab"
)

// converge applies ops to current the way the dossier API would.
func converge(current []colab.Assignment, ops []colab.Op) []colab.Assignment {
	state := make(map[int64]int64, len(current))
	for _, a := range current {
		state[a.ModuleID] = a.UserID
	}
	for _, op := range ops {
		state[op.ModuleID] = op.NewUserID
	}
	out := make([]colab.Assignment, 0, len(state))
	for m, u := range state {
		out = append(out, colab.Assignment{ModuleID: m, UserID: u})
	}
	return out
}

var _ = Describe("Reconcile", func() {
	DescribeTable("computes the writes towards the selection",
		func(current, desired []colab.Assignment, expected []colab.Op) {
			Expect(colab.Reconcile(desired, current)).To(Equal(expected))
		},
		Entry("adds a module that has no active assignment",
			[]colab.Assignment{{ModuleID: ticketing, UserID: u1}},
			[]colab.Assignment{{ModuleID: ticketing, UserID: u1}, {ModuleID: hotel, UserID: u2}},
			[]colab.Op{colab.CreateOp(hotel, u2)}),
		Entry("replaces a module held by another user",
			[]colab.Assignment{{ModuleID: ticketing, UserID: u1}},
			[]colab.Assignment{{ModuleID: ticketing, UserID: u2}},
			[]colab.Op{colab.ReplaceOp(ticketing, u1, u2)}),
		Entry("never removes a module missing from the selection",
			[]colab.Assignment{{ModuleID: ticketing, UserID: u1}, {ModuleID: hotel, UserID: u2}},
			[]colab.Assignment{{ModuleID: hotel, UserID: u2}},
			[]colab.Op{}),
		Entry("emits nothing when converged",
			[]colab.Assignment{{ModuleID: ticketing, UserID: u1}},
			[]colab.Assignment{{ModuleID: ticketing, UserID: u1}},
			[]colab.Op{}),
		Entry("creates everything on an empty dossier",
			[]colab.Assignment(nil),
			[]colab.Assignment{{ModuleID: hotel, UserID: u2}, {ModuleID: ticketing, UserID: u1}},
			[]colab.Op{colab.CreateOp(ticketing, u1), colab.CreateOp(hotel, u2)}),
		Entry("keeps the first occurrence of a repeated module",
			[]colab.Assignment(nil),
			[]colab.Assignment{{ModuleID: hotel, UserID: u2}, {ModuleID: hotel, UserID: u3}},
			[]colab.Op{colab.CreateOp(hotel, u2)}),
	)

	It("should order ops by module whatever the input order", func() {
		current := []colab.Assignment{{ModuleID: visa, UserID: u1}, {ModuleID: ticketing, UserID: u1}}
		desired := []colab.Assignment{
			{ModuleID: visa, UserID: u2},
			{ModuleID: transfer, UserID: u3},
			{ModuleID: ticketing, UserID: u2},
			{ModuleID: hotel, UserID: u3},
		}

		ops := colab.Reconcile(desired, current)

		Expect(ops).To(Equal([]colab.Op{
			colab.ReplaceOp(ticketing, u1, u2),
			colab.CreateOp(hotel, u3),
			colab.ReplaceOp(visa, u1, u2),
			colab.CreateOp(transfer, u3),
		}))
	})

	It("should be idempotent once its ops are applied", func() {
		current := []colab.Assignment{{ModuleID: ticketing, UserID: u1}, {ModuleID: visa, UserID: u3}}
		desired := []colab.Assignment{{ModuleID: ticketing, UserID: u2}, {ModuleID: hotel, UserID: u2}}

		ops := colab.Reconcile(desired, current)
		Expect(ops).To(HaveLen(2))

		Expect(colab.Reconcile(desired, converge(current, ops))).To(BeEmpty())
	})

	It("should emit at most one op per module", func() {
		desired := []colab.Assignment{
			{ModuleID: ticketing, UserID: u1},
			{ModuleID: ticketing, UserID: u2},
			{ModuleID: hotel, UserID: u1},
		}

		seen := map[int64]int{}
		for _, op := range colab.Reconcile(desired, nil) {
			seen[op.ModuleID]++
		}

		Expect(seen).To(Equal(map[int64]int{ticketing: 1, hotel: 1}))
	})

	It("should format ops for logs", func() {
		Expect(colab.CreateOp(hotel, u2).String()).To(Equal("CREATE(module=2, user=102)"))
		Expect(colab.ReplaceOp(ticketing, u1, u2).String()).To(Equal("REPLACE(module=1, 101->102)"))
	})

	Describe("ActiveAssignments", func() {
		It("should drop inactive history rows and sort by module", func() {
			rows := []colab.CurrentAssignment{
				{ModuleID: hotel, UserID: u2, Active: true},
				{ModuleID: ticketing, UserID: u1, Active: false},
				{ModuleID: ticketing, UserID: u3, Active: true},
			}

			Expect(colab.ActiveAssignments(rows)).To(Equal([]colab.Assignment{
				{ModuleID: ticketing, UserID: u3},
				{ModuleID: hotel, UserID: u2},
			}))
		})
	})
})
