package workflow

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"tribune_back_end/internal/models"
)

// fakeRepo reproduit en mémoire la sémantique d'écriture conditionnelle
// du dépôt Scylla : UpdateStatus n'écrit que si le statut stocké vaut
// encore ExpectedStatus
type fakeRepo struct {
	mu       sync.Mutex
	requests map[int64]models.Request
}

func newFakeRepo(reqs ...models.Request) *fakeRepo {
	r := &fakeRepo{requests: make(map[int64]models.Request)}
	for _, req := range reqs {
		r.requests[req.ID] = req
	}
	return r
}

func (r *fakeRepo) Create(_ context.Context, req *models.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ID] = *req
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id int64) (*models.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &req, nil
}

func (r *fakeRepo) GetAll(_ context.Context, _ Filters, _, _ int) ([]models.Request, int, error) {
	return nil, 0, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, p UpdateStatusParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[p.ID]
	if !ok || req.Status != p.ExpectedStatus {
		return false, nil
	}
	req.Status = p.NewStatus
	req.AdminID = &p.AdminID
	if p.AdminNotes != "" {
		req.AdminNotes = p.AdminNotes
	}
	if p.RejectionReason != "" {
		req.RejectionReason = p.RejectionReason
	}
	if p.ApprovedAmount != nil {
		req.ApprovedAmount = p.ApprovedAmount
	}
	if p.RefundReference != "" {
		req.RefundReference = p.RefundReference
	}
	if p.ReviewedAt != nil {
		req.ReviewedAt = p.ReviewedAt
	}
	if p.ProcessedAt != nil {
		req.ProcessedAt = p.ProcessedAt
	}
	r.requests[p.ID] = req
	return true, nil
}

func (r *fakeRepo) GetStatistics(_ context.Context, staleDays int) (*Statistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &Statistics{ByStatus: map[string]int{}, ByPriority: map[string]int{}, StaleDays: staleDays}
	for _, req := range r.requests {
		stats.Total++
		stats.ByStatus[req.Status]++
		stats.ByPriority[req.Priority]++
		if req.ApprovedAmount != nil {
			stats.TotalApprovedAmount += *req.ApprovedAmount
		}
	}
	return stats, nil
}

func (r *fakeRepo) snapshot(id int64) models.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[id]
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []AuditEvent
	done   chan struct{}
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{done: make(chan struct{}, 16)}
}

func (n *fakeNotifier) Notify(event AuditEvent) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
	n.done <- struct{}{}
}

func (n *fakeNotifier) wait(t *testing.T) AuditEvent {
	t.Helper()
	select {
	case <-n.done:
	case <-time.After(2 * time.Second):
		t.Fatal("aucun événement d'audit reçu")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.events[len(n.events)-1]
}

func pendingRequest(id int64, kind string, amount float64) models.Request {
	return models.Request{
		ID:              id,
		Reference:       "REQ-2026-000042",
		Kind:            kind,
		CustomerID:      "c-1",
		CustomerName:    "Jean Dupont",
		CustomerEmail:   "jean@example.com",
		Reason:          "événement reporté à une date inconnue",
		RequestedAmount: amount,
		Status:          models.StatusPending,
		Priority:        models.PriorityNormal,
		RequestedAt:     time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
}

func newTestService(repo Repository, notifier Notifier) *Service {
	var counter int64 = 100
	return NewService(repo, notifier, func(context.Context) (int64, error) {
		counter++
		return counter, nil
	})
}

func TestService_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a pending request When approved with a partial amount Then it is persisted with reviewed_at", func(t *testing.T) {
		repo := newFakeRepo(pendingRequest(42, models.RequestKindRefund, 100.00))
		notifier := newFakeNotifier()
		svc := newTestService(repo, notifier)

		amount := 80.00
		req, err := svc.Approve(ctx, 42, 7, &amount, "remboursement partiel, frais de dossier retenus")
		if err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if req.Status != models.StatusApproved {
			t.Errorf("statut = %s, attendu approved", req.Status)
		}

		stored := repo.snapshot(42)
		if stored.Status != models.StatusApproved || stored.ApprovedAmount == nil || *stored.ApprovedAmount != 80.00 {
			t.Errorf("persistance incorrecte: %+v", stored)
		}
		if stored.ReviewedAt == nil {
			t.Error("reviewed_at non renseigné")
		}
		if stored.AdminID == nil || *stored.AdminID != 7 {
			t.Errorf("admin non renseigné: %+v", stored.AdminID)
		}

		event := notifier.wait(t)
		if event.Action != ActionApprove || event.FromStatus != "pending" || event.ToStatus != "approved" {
			t.Errorf("événement d'audit incorrect: %+v", event)
		}
	})

	t.Run("Given an approved request When approved again Then InvalidTransition", func(t *testing.T) {
		repo := newFakeRepo(pendingRequest(42, models.RequestKindRefund, 100.00))
		svc := newTestService(repo, nil)

		amount := 80.00
		if _, err := svc.Approve(ctx, 42, 7, &amount, ""); err != nil {
			t.Fatalf("première approbation échouée: %v", err)
		}
		_, err := svc.Approve(ctx, 42, 9, nil, "")
		if !IsKind(err, KindInvalidTransition) {
			t.Errorf("attendu InvalidTransition, reçu %v", err)
		}
	})

	t.Run("Given an amount above requested When approved Then ValidationError and no write", func(t *testing.T) {
		repo := newFakeRepo(pendingRequest(42, models.RequestKindRefund, 100.00))
		svc := newTestService(repo, nil)
		before := repo.snapshot(42)

		amount := 150.00
		_, err := svc.Approve(ctx, 42, 7, &amount, "")
		if !IsKind(err, KindValidation) {
			t.Fatalf("attendu ValidationError, reçu %v", err)
		}
		if after := repo.snapshot(42); !reflect.DeepEqual(before, after) {
			t.Errorf("écriture partielle détectée: avant=%+v après=%+v", before, after)
		}
	})

	t.Run("Given an unknown id When approved Then NotFound", func(t *testing.T) {
		svc := newTestService(newFakeRepo(), nil)
		_, err := svc.Approve(ctx, 999, 7, nil, "")
		if !IsKind(err, KindNotFound) {
			t.Errorf("attendu NotFound, reçu %v", err)
		}
	})

	t.Run("Given a missing admin id When approved Then Unauthorized", func(t *testing.T) {
		svc := newTestService(newFakeRepo(pendingRequest(42, models.RequestKindRefund, 100.00)), nil)
		_, err := svc.Approve(ctx, 42, 0, nil, "")
		if !IsKind(err, KindUnauthorized) {
			t.Errorf("attendu Unauthorized, reçu %v", err)
		}
	})
}

func TestService_Reject(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a short reason When rejected Then ValidationError and status stays pending", func(t *testing.T) {
		repo := newFakeRepo(pendingRequest(43, models.RequestKindCancellation, 60.00))
		svc := newTestService(repo, nil)
		before := repo.snapshot(43)

		_, err := svc.Reject(ctx, 43, 7, "no")
		if !IsKind(err, KindValidation) {
			t.Fatalf("attendu ValidationError, reçu %v", err)
		}
		after := repo.snapshot(43)
		if after.Status != models.StatusPending || !reflect.DeepEqual(before, after) {
			t.Errorf("le rejet refusé a modifié la demande: %+v", after)
		}
	})

	t.Run("Given a pending request When rejected with a valid reason Then it is terminal", func(t *testing.T) {
		repo := newFakeRepo(pendingRequest(43, models.RequestKindCancellation, 60.00))
		svc := newTestService(repo, nil)

		req, err := svc.Reject(ctx, 43, 7, "hors délai de rétractation contractuel")
		if err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if req.Status != models.StatusRejected || req.RejectionReason == "" || req.ReviewedAt == nil {
			t.Errorf("rejet incomplet: %+v", req)
		}

		// aucun retour possible depuis un état terminal
		if _, err := svc.Approve(ctx, 43, 7, nil, ""); !IsKind(err, KindInvalidTransition) {
			t.Errorf("approve après rejet devrait être InvalidTransition, reçu %v", err)
		}
	})
}

func TestService_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("Given an approved request When completed Then processed_at and refund_reference are set", func(t *testing.T) {
		req := pendingRequest(44, models.RequestKindRefund, 50.00)
		req.Status = models.StatusApproved
		amount := 50.00
		req.ApprovedAmount = &amount
		repo := newFakeRepo(req)
		svc := newTestService(repo, nil)

		result, err := svc.Complete(ctx, 44, 7, "RF-1", "")
		if err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if result.Status != models.StatusCompleted || result.RefundReference != "RF-1" || result.ProcessedAt == nil {
			t.Errorf("clôture incomplète: %+v", result)
		}
	})

	t.Run("Given a pending request When completed Then InvalidTransition", func(t *testing.T) {
		svc := newTestService(newFakeRepo(pendingRequest(44, models.RequestKindRefund, 50.00)), nil)
		_, err := svc.Complete(ctx, 44, 7, "RF-1", "")
		if !IsKind(err, KindInvalidTransition) {
			t.Errorf("attendu InvalidTransition, reçu %v", err)
		}
	})
}

func TestService_StartProcessing(t *testing.T) {
	ctx := context.Background()

	t.Run("Given an approved refund When processing starts Then status is processing", func(t *testing.T) {
		req := pendingRequest(45, models.RequestKindRefund, 75.00)
		req.Status = models.StatusApproved
		repo := newFakeRepo(req)
		svc := newTestService(repo, nil)

		result, err := svc.StartProcessing(ctx, 45, 7)
		if err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if result.Status != models.StatusProcessing {
			t.Errorf("statut = %s, attendu processing", result.Status)
		}
		if _, err := svc.Complete(ctx, 45, 7, "RF-2", ""); err != nil {
			t.Errorf("processing → completed devrait réussir: %v", err)
		}
	})

	t.Run("Given an approved cancellation When processing starts Then InvalidTransition", func(t *testing.T) {
		req := pendingRequest(46, models.RequestKindCancellation, 75.00)
		req.Status = models.StatusApproved
		svc := newTestService(newFakeRepo(req), nil)

		_, err := svc.StartProcessing(ctx, 46, 7)
		if !IsKind(err, KindInvalidTransition) {
			t.Errorf("attendu InvalidTransition, reçu %v", err)
		}
	})
}

func TestService_ConcurrentMutations(t *testing.T) {
	// Deux admins agissent simultanément sur la même demande pending :
	// exactement une mutation doit l'emporter, l'autre échoue en
	// InvalidTransition grâce à l'écriture conditionnelle
	ctx := context.Background()
	repo := newFakeRepo(pendingRequest(42, models.RequestKindRefund, 100.00))
	svc := newTestService(repo, nil)

	var wg sync.WaitGroup
	results := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, results[0] = svc.Approve(ctx, 42, 7, nil, "")
	}()
	go func() {
		defer wg.Done()
		_, results[1] = svc.Reject(ctx, 42, 9, "doublon d'une demande déjà traitée")
	}()
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else if !IsKind(err, KindInvalidTransition) {
			t.Errorf("erreur inattendue: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("exactement un succès attendu, obtenu %d", successes)
	}

	stored := repo.snapshot(42)
	if stored.Status != models.StatusApproved && stored.Status != models.StatusRejected {
		t.Errorf("statut final incohérent: %s", stored.Status)
	}
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("Given valid params When submitted Then a pending request with a reference is created", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo, nil)

		req, err := svc.Submit(ctx, SubmitParams{
			Kind:          models.RequestKindCancellation,
			BookingID:     "b-1",
			CustomerID:    "c-1",
			CustomerName:  "Jean Dupont",
			CustomerEmail: "jean@example.com",
			Reason:        "impossibilité de me déplacer ce jour-là",
			Amount:        120.00,
		})
		if err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if req.Status != models.StatusPending || req.Reference == "" || req.Priority != models.PriorityNormal {
			t.Errorf("demande créée incorrecte: %+v", req)
		}
	})

	t.Run("Given a non positive amount When submitted Then ValidationError", func(t *testing.T) {
		svc := newTestService(newFakeRepo(), nil)
		_, err := svc.Submit(ctx, SubmitParams{
			Kind:   models.RequestKindRefund,
			Reason: "montant débité deux fois par erreur",
			Amount: 0,
		})
		if !IsKind(err, KindValidation) {
			t.Errorf("attendu ValidationError, reçu %v", err)
		}
	})
}

func TestService_ListClampsPagination(t *testing.T) {
	repo := &pagingRepo{}
	svc := newTestService(repo, nil)

	if _, _, err := svc.List(context.Background(), Filters{}, -3, 5000); err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if repo.page != 1 {
		t.Errorf("page = %d, attendu 1", repo.page)
	}
	if repo.perPage != MaxPerPage {
		t.Errorf("perPage = %d, attendu %d", repo.perPage, MaxPerPage)
	}
}

// pagingRepo capture les bornes transmises au dépôt
type pagingRepo struct {
	fakeRepo
	page, perPage int
}

func (r *pagingRepo) GetAll(_ context.Context, _ Filters, page, perPage int) ([]models.Request, int, error) {
	r.page, r.perPage = page, perPage
	return nil, 0, nil
}
