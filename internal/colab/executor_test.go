package colab_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/travel-agency/internal"
	"github.com/frahmantamala/travel-agency/internal/colab"
	"github.com/frahmantamala/travel-agency/internal/core/events"
)

// GatedStore routes every write through a ConcurrencyGate and records how
// many writes had settled when the snapshot reload started.
type GatedStore struct {
	*MockStore
	gate *ConcurrencyGate

	mu       sync.Mutex
	reloadAt int
	reloads  int
}

func (s *GatedStore) CreateAssignment(ctx context.Context, dossierID, moduleID, userID int64) error {
	s.gate.Enter(ctx)
	defer s.gate.Leave()
	return s.MockStore.CreateAssignment(ctx, dossierID, moduleID, userID)
}

func (s *GatedStore) ReplaceAssignment(ctx context.Context, dossierID, moduleID, newUserID int64) error {
	s.gate.Enter(ctx)
	defer s.gate.Leave()
	return s.MockStore.ReplaceAssignment(ctx, dossierID, moduleID, newUserID)
}

func (s *GatedStore) LoadSnapshot(ctx context.Context, dossierID int64) (*colab.Snapshot, error) {
	s.mu.Lock()
	s.reloadAt = s.gate.Settled()
	s.reloads++
	s.mu.Unlock()
	return s.MockStore.LoadSnapshot(ctx, dossierID)
}

var _ = Describe("Executor", func() {
	const dossierID int64 = 42

	var (
		store     *MockStore
		publisher *MockPublisher
		executor  *colab.Executor
	)

	BeforeEach(func() {
		store = NewMockStore(7, colab.Assignment{ModuleID: transfer, UserID: u1})
		publisher = &MockPublisher{}
		executor = colab.NewExecutor(store, store, testLogger(), colab.WithPublisher(publisher))
	})

	It("should apply every op and return the reloaded snapshot", func() {
		// Given
		ops := []colab.Op{colab.CreateOp(ticketing, u1), colab.ReplaceOp(transfer, u1, u2)}

		// When
		result, err := executor.Apply(context.Background(), dossierID, ops)

		// Then
		Expect(err).NotTo(HaveOccurred())
		Expect(result.BatchID).NotTo(BeEmpty())
		Expect(result.DossierID).To(Equal(dossierID))
		Expect(result.Failed()).To(Equal(0))
		Expect(result.Outcomes).To(HaveLen(2))
		Expect(result.Outcomes[0].Op).To(Equal(ops[0]))
		Expect(result.Outcomes[1].Op).To(Equal(ops[1]))
		Expect(result.Snapshot.Active()).To(Equal([]colab.Assignment{
			{ModuleID: ticketing, UserID: u1},
			{ModuleID: transfer, UserID: u2},
		}))
	})

	It("should keep the replaced row as inactive history", func() {
		result, err := executor.Apply(context.Background(), dossierID, []colab.Op{colab.ReplaceOp(transfer, u1, u2)})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Snapshot.Assignments).To(ContainElement(colab.CurrentAssignment{ModuleID: transfer, UserID: u1, Active: false}))
		Expect(result.Snapshot.Assignments).To(ContainElement(colab.CurrentAssignment{ModuleID: transfer, UserID: u2, Active: true}))
	})

	It("should report a partial failure while keeping what was committed", func() {
		// Given a batch of three writes where the second one is rejected
		ops := []colab.Op{colab.CreateOp(ticketing, u1), colab.CreateOp(hotel, u2), colab.CreateOp(visa, u3)}
		store.FailModule(hotel, errors.New("hotel desk locked"))

		// When
		result, err := executor.Apply(context.Background(), dossierID, ops)

		// Then
		Expect(err).To(HaveOccurred())
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeColabBatchFailed))
		Expect(appErr.Message).To(Equal("hotel desk locked"))
		Expect(appErr.Details).To(Equal(colab.BatchFailure{Total: 3, Failed: 1}))

		Expect(result.Failed()).To(Equal(1))
		Expect(result.Outcomes[1].Succeeded()).To(BeFalse())
		Expect(result.Outcomes[1].Error).To(Equal("hotel desk locked"))
		Expect(result.Outcomes[0].Succeeded()).To(BeTrue())
		Expect(result.Outcomes[2].Succeeded()).To(BeTrue())

		Expect(result.Snapshot.Active()).To(Equal([]colab.Assignment{
			{ModuleID: ticketing, UserID: u1},
			{ModuleID: visa, UserID: u3},
			{ModuleID: transfer, UserID: u1},
		}))
	})

	It("should surface the message of the first failing op in op order", func() {
		store.FailModule(hotel, internal.ErrUserNotFound)
		store.FailModule(visa, errors.New("visa desk locked"))
		ops := []colab.Op{colab.CreateOp(ticketing, u1), colab.CreateOp(hotel, u2), colab.CreateOp(visa, u3)}

		_, err := executor.Apply(context.Background(), dossierID, ops)

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Message).To(Equal(internal.ErrUserNotFound.Message))
		Expect(appErr.Details).To(Equal(colab.BatchFailure{Total: 3, Failed: 2}))
		Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
	})

	It("should issue every op even when another one fails", func() {
		store.FailModule(ticketing, errors.New("boom"))
		ops := []colab.Op{colab.CreateOp(ticketing, u1), colab.CreateOp(hotel, u2), colab.ReplaceOp(transfer, u1, u3)}

		_, err := executor.Apply(context.Background(), dossierID, ops)

		Expect(err).To(HaveOccurred())
		Expect(store.Writes()).To(HaveLen(3))
	})

	It("should fail when the snapshot cannot be reloaded after a successful batch", func() {
		store.loadErr = errors.New("connection reset")

		result, err := executor.Apply(context.Background(), dossierID, []colab.Op{colab.CreateOp(hotel, u2)})

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeSnapshotFailed))
		Expect(result.Failed()).To(Equal(0))
		Expect(result.Snapshot).To(BeNil())
	})

	It("should still reload for an empty batch", func() {
		result, err := executor.Apply(context.Background(), dossierID, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(store.Writes()).To(BeEmpty())
		Expect(result.Snapshot.Active()).To(Equal([]colab.Assignment{{ModuleID: transfer, UserID: u1}}))
	})

	It("should publish one reconciled event per batch", func() {
		store.FailModule(hotel, errors.New("rejected"))
		ops := []colab.Op{colab.CreateOp(hotel, u2), colab.ReplaceOp(transfer, u1, u3)}

		_, _ = executor.Apply(context.Background(), dossierID, ops)

		published := publisher.Events()
		Expect(published).To(HaveLen(1))
		event, ok := published[0].(*events.ColabsReconciledEvent)
		Expect(ok).To(BeTrue())
		Expect(event.EventType()).To(Equal(events.EventTypeColabsReconciled))
		Expect(event.DossierID).To(Equal(dossierID))
		Expect(event.Creates).To(Equal(1))
		Expect(event.Replaces).To(Equal(1))
		Expect(event.Failed).To(Equal(1))
	})

	Describe("scheduling", func() {
		var (
			ops   []colab.Op
			gated *GatedStore
		)

		BeforeEach(func() {
			ops = []colab.Op{colab.CreateOp(ticketing, u1), colab.CreateOp(hotel, u2), colab.ReplaceOp(transfer, u1, u3)}
			gated = &GatedStore{MockStore: store, gate: NewConcurrencyGate(len(ops))}
			executor = colab.NewExecutor(gated, gated, testLogger())
		})

		It("should have every write in flight at once", func() {
			_, err := executor.Apply(context.Background(), dossierID, ops)

			Expect(err).NotTo(HaveOccurred())
			Expect(gated.gate.Peak()).To(Equal(len(ops)))
		})

		It("should reload once, after every write has settled", func() {
			// Given the second write is rejected
			store.FailModule(hotel, errors.New("rejected"))

			// When
			result, err := executor.Apply(context.Background(), dossierID, ops)

			// Then
			Expect(err).To(HaveOccurred())
			Expect(result.Snapshot).NotTo(BeNil())
			Expect(gated.reloads).To(Equal(1))
			Expect(gated.reloadAt).To(Equal(len(ops)))
		})
	})
})
