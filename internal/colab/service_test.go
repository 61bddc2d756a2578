package colab_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/travel-agency/internal/colab"
)

var _ = Describe("Colab Service", func() {
	const (
		dossierID int64 = 42
		acme      int64 = 7
		globex    int64 = 8
	)

	var (
		profiles  *MockProfileSource
		lookup    *MockLookup
		store     *MockStore
		publisher *MockPublisher
		service   *colab.Service
	)

	activate := func(moduleID int64) colab.Intent {
		return colab.Intent{ModuleID: moduleID, Active: true}
	}
	assign := func(moduleID, userID int64) colab.Intent {
		return colab.Intent{ModuleID: moduleID, UserID: &userID, Active: true}
	}

	newService := func() {
		service = colab.NewService(profiles, lookup, store, store, publisher, colab.ServiceConfig{}, testLogger())
	}

	BeforeEach(func() {
		profiles = &MockProfileSource{profiles: []colab.Profile{
			{ID: 1, Name: "Air desk", Modules: []colab.Module{module(ticketing)}, Users: staff(u1, u2)},
			{ID: 2, Name: "Land desk", Modules: []colab.Module{module(hotel)}, Users: staff(u2, u3)},
		}}
		lookup = NewMockLookup()
		store = NewMockStore(acme, colab.Assignment{ModuleID: ticketing, UserID: u1})
		publisher = &MockPublisher{}
		newService()
	})

	Describe("Prepare", func() {
		It("should load the roster, the suggestions and the active selection", func() {
			// Given
			lookup.Returns(hotel, acme, u3)

			// When
			session, err := service.Prepare(context.Background(), dossierID)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(session.DossierID).To(Equal(dossierID))
			Expect(session.Roster.Modules()).To(Equal([]colab.Module{module(hotel), module(ticketing)}))
			Expect(session.Suggestions).To(Equal(colab.Suggestions{hotel: u3}))
			Expect(session.Selector.Snapshot()).To(Equal([]colab.Assignment{{ModuleID: ticketing, UserID: u1}}))
			Expect(session.Plan()).To(BeEmpty())
		})

		It("should fail when profiles cannot be listed", func() {
			profiles.err = errors.New("db down")

			_, err := service.Prepare(context.Background(), dossierID)

			Expect(err).To(MatchError(ContainSubstring("list profiles")))
		})

		It("should fail when the snapshot cannot be loaded", func() {
			store.loadErr = errors.New("not reachable")

			_, err := service.Prepare(context.Background(), dossierID)

			Expect(err).To(MatchError(ContainSubstring("load snapshot")))
		})

		It("should describe every roster module", func() {
			lookup.Returns(hotel, acme, u3)
			session, err := service.Prepare(context.Background(), dossierID)
			Expect(err).NotTo(HaveOccurred())

			defaults := session.Defaults()

			Expect(defaults).To(HaveLen(2))
			Expect(defaults[0].Module).To(Equal(module(hotel)))
			Expect(*defaults[0].SuggestedUserID).To(Equal(u3))
			Expect(*defaults[0].DefaultUserID).To(Equal(u3))
			Expect(defaults[0].CurrentUserID).To(BeNil())
			Expect(defaults[0].SelectedUserID).To(BeNil())
			Expect(defaults[1].Module).To(Equal(module(ticketing)))
			Expect(*defaults[1].CurrentUserID).To(Equal(u1))
			Expect(*defaults[1].SelectedUserID).To(Equal(u1))
			Expect(*defaults[1].DefaultUserID).To(Equal(u1))
		})
	})

	Describe("collaborator scenarios", func() {
		var session *colab.Session

		JustBeforeEach(func() {
			var err error
			session, err = service.Prepare(context.Background(), dossierID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should create a newly activated module", func() {
			// When
			Expect(session.ApplyIntents([]colab.Intent{assign(hotel, u2)})).To(Succeed())

			// Then
			Expect(session.Plan()).To(Equal([]colab.Op{colab.CreateOp(hotel, u2)}))

			result, err := service.Submit(context.Background(), session)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Snapshot.Active()).To(Equal([]colab.Assignment{
				{ModuleID: ticketing, UserID: u1},
				{ModuleID: hotel, UserID: u2},
			}))
			Expect(session.Plan()).To(BeEmpty())
		})

		It("should replace a reassigned module", func() {
			Expect(session.ApplyIntents([]colab.Intent{assign(ticketing, u2)})).To(Succeed())

			Expect(session.Plan()).To(Equal([]colab.Op{colab.ReplaceOp(ticketing, u1, u2)}))
		})

		It("should leave a deactivated module untouched", func() {
			store = NewMockStore(acme,
				colab.Assignment{ModuleID: ticketing, UserID: u1},
				colab.Assignment{ModuleID: hotel, UserID: u2})
			newService()
			var err error
			session, err = service.Prepare(context.Background(), dossierID)
			Expect(err).NotTo(HaveOccurred())

			Expect(session.ApplyIntents([]colab.Intent{{ModuleID: ticketing, Active: false}})).To(Succeed())

			Expect(session.Plan()).To(BeEmpty())
			_, err = service.Submit(context.Background(), session)
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Writes()).To(BeEmpty())
		})

		Context("when the history suggests a user outside the roster", func() {
			BeforeEach(func() {
				lookup.Returns(hotel, acme, u9)
			})

			It("should seed the module with the first roster user", func() {
				Expect(session.ApplyIntents([]colab.Intent{activate(hotel)})).To(Succeed())

				Expect(session.Selector.Snapshot()).To(ContainElement(colab.Assignment{ModuleID: hotel, UserID: u2}))
			})
		})

		Context("when the history suggests an eligible user", func() {
			BeforeEach(func() {
				lookup.Returns(hotel, acme, u3)
			})

			It("should seed the module with the suggestion", func() {
				Expect(session.ApplyIntents([]colab.Intent{activate(hotel)})).To(Succeed())

				Expect(session.Plan()).To(Equal([]colab.Op{colab.CreateOp(hotel, u3)}))
			})
		})

		It("should report a failed batch and keep the selection for a retry", func() {
			// Given
			store.FailModule(hotel, errors.New("rejected"))
			Expect(session.ApplyIntents([]colab.Intent{assign(ticketing, u2), assign(hotel, u3)})).To(Succeed())

			// When
			result, err := service.Submit(context.Background(), session)

			// Then
			Expect(err).To(HaveOccurred())
			Expect(result.Failed()).To(Equal(1))
			Expect(session.Snapshot.Active()).To(ContainElement(colab.Assignment{ModuleID: ticketing, UserID: u2}))
			Expect(session.Plan()).To(Equal([]colab.Op{colab.CreateOp(hotel, u3)}))
		})

		It("should accept a user outside the roster and log it", func() {
			// Given a service logging into a buffer
			var logs bytes.Buffer
			service = colab.NewService(profiles, lookup, store, store, publisher, colab.ServiceConfig{},
				slog.New(slog.NewJSONHandler(&logs, nil)))
			var err error
			session, err = service.Prepare(context.Background(), dossierID)
			Expect(err).NotTo(HaveOccurred())

			// When
			Expect(session.ApplyIntents([]colab.Intent{assign(hotel, u2), assign(ticketing, u9)})).To(Succeed())

			// Then
			Expect(session.Plan()).To(Equal([]colab.Op{
				colab.ReplaceOp(ticketing, u1, u9),
				colab.CreateOp(hotel, u2),
			}))
			Expect(logs.String()).To(ContainSubstring(`"msg":"assigned a user outside the module roster"`))
			Expect(logs.String()).To(ContainSubstring(`"user_id":109`))
			Expect(strings.Count(logs.String(), "outside the module roster")).To(Equal(1))
		})

		It("should refuse to reassign a module that cannot be selected", func() {
			err := session.ApplyIntents([]colab.Intent{assign(visa, u3)})

			Expect(err).To(MatchError(colab.ErrModuleNotActive))
			Expect(session.Selector.IsActive(visa)).To(BeFalse())
		})

		It("should replay intents in order", func() {
			Expect(session.ApplyIntents([]colab.Intent{
				assign(hotel, u3),
				{ModuleID: hotel, Active: false},
				activate(hotel),
			})).To(Succeed())

			Expect(session.Plan()).To(Equal([]colab.Op{colab.CreateOp(hotel, u2)}))
		})

		It("should publish the batch outcome", func() {
			Expect(session.ApplyIntents([]colab.Intent{assign(hotel, u2)})).To(Succeed())

			_, err := service.Submit(context.Background(), session)

			Expect(err).NotTo(HaveOccurred())
			Expect(publisher.Events()).To(HaveLen(1))
		})
	})

	Describe("ChangeBillingClient", func() {
		It("should recompute suggestions and keep selected modules", func() {
			// Given
			lookup.Returns(hotel, acme, u2)
			lookup.Returns(hotel, globex, u3)
			lookup.Returns(ticketing, globex, u2)
			session, err := service.Prepare(context.Background(), dossierID)
			Expect(err).NotTo(HaveOccurred())

			// When
			Expect(session.ChangeBillingClient(context.Background(), globex)).To(Succeed())

			// Then
			Expect(session.Suggestions).To(Equal(colab.Suggestions{hotel: u3, ticketing: u2}))
			Expect(session.ApplyIntents([]colab.Intent{activate(hotel)})).To(Succeed())
			Expect(session.Selector.Snapshot()).To(Equal([]colab.Assignment{
				{ModuleID: ticketing, UserID: u1},
				{ModuleID: hotel, UserID: u3},
			}))
		})

		It("should leave no suggestions behind when the new pass is cancelled", func() {
			lookup.Returns(hotel, acme, u2)
			session, err := service.Prepare(context.Background(), dossierID)
			Expect(err).NotTo(HaveOccurred())
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			err = session.ChangeBillingClient(ctx, globex)

			Expect(err).To(MatchError(context.Canceled))
			Expect(session.Suggestions).To(BeEmpty())
		})
	})
})
