package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"tribune_back_end/internal/models"
	"tribune_back_end/internal/workflow"
)

type fakeRepo struct {
	mu       sync.Mutex
	byID     map[int64]models.Request
	lastPage struct {
		filters workflow.Filters
		page    int
		perPage int
	}
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[int64]models.Request{}}
}

func (f *fakeRepo) Create(ctx context.Context, req *models.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[req.ID] = *req
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id int64) (*models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[id]
	if !ok {
		return nil, workflow.ErrNotFound
	}
	copied := req
	return &copied, nil
}

func (f *fakeRepo) GetAll(ctx context.Context, filters workflow.Filters, page, perPage int) ([]models.Request, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPage.filters = filters
	f.lastPage.page = page
	f.lastPage.perPage = perPage

	items := []models.Request{}
	for _, req := range f.byID {
		items = append(items, req)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })

	total := len(items)
	start := (page - 1) * perPage
	if start >= total {
		return []models.Request{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return items[start:end], total, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, p workflow.UpdateStatusParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[p.ID]
	if !ok || req.Status != p.ExpectedStatus {
		return false, nil
	}
	req.Status = p.NewStatus
	req.AdminID = &p.AdminID
	if p.ApprovedAmount != nil {
		req.ApprovedAmount = p.ApprovedAmount
	}
	if p.RejectionReason != "" {
		req.RejectionReason = p.RejectionReason
	}
	f.byID[p.ID] = req
	return true, nil
}

func (f *fakeRepo) GetStatistics(ctx context.Context, staleDays int) (*workflow.Statistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &workflow.Statistics{
		Total:     len(f.byID),
		ByStatus:  map[string]int{},
		StaleDays: staleDays,
	}
	for _, req := range f.byID {
		stats.ByStatus[req.Status]++
	}
	return stats, nil
}

func newTestRouter(repo *fakeRepo, adminID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)

	var counter int64 = 100
	svc := workflow.NewService(repo, nil, func(ctx context.Context) (int64, error) {
		counter++
		return counter, nil
	})
	h := NewRequestsHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("admin_id", adminID)
		c.Next()
	})
	r.GET("/requests", h.List)
	r.GET("/export", h.ExportCSV)
	r.GET("/requests/:id", h.GetByID)
	r.GET("/statistics", h.Statistics)
	r.PATCH("/requests/:id/approve", h.Approve)
	r.PATCH("/requests/:id/reject", h.Reject)
	r.PATCH("/requests/:id/status", h.UpdateStatus)
	return r
}

func seedPending(repo *fakeRepo, id int64) {
	repo.byID[id] = models.Request{
		ID:              id,
		Reference:       "REQ-2026-000042",
		Kind:            models.RequestKindCancellation,
		BookingID:       "b1",
		CustomerID:      "c1",
		CustomerName:    "Jean Dupont",
		Reason:          "Je ne peux plus assister au match",
		RequestedAmount: 120.0,
		Status:          models.StatusPending,
		Priority:        models.PriorityNormal,
		RequestedAt:     time.Now(),
	}
}

func TestRequestsHandlerList(t *testing.T) {
	t.Run("Given unknown and valid filters When listing Then only known filters reach the repository", func(t *testing.T) {
		repo := newFakeRepo()
		seedPending(repo, 7)
		router := newTestRouter(repo, 1)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/requests?status=pending&bogus=1&page=2&per_page=10", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("code = %d, attendu 200: %s", w.Code, w.Body.String())
		}
		if repo.lastPage.filters.Status != models.StatusPending {
			t.Errorf("filtre status = %q", repo.lastPage.filters.Status)
		}
		if repo.lastPage.page != 2 || repo.lastPage.perPage != 10 {
			t.Errorf("pagination = (%d, %d)", repo.lastPage.page, repo.lastPage.perPage)
		}
	})

	t.Run("Given a malformed date filter When listing Then a 400 with field detail is returned", func(t *testing.T) {
		repo := newFakeRepo()
		router := newTestRouter(repo, 1)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/requests?start_date=not-a-date", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("code = %d, attendu 400", w.Code)
		}
		var body struct {
			Fields map[string]string `json:"fields"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("décodage: %v", err)
		}
		if _, ok := body.Fields["start_date"]; !ok {
			t.Errorf("détail start_date absent: %+v", body.Fields)
		}
	})

	t.Run("Given an oversized per_page When listing Then it is clamped to the maximum", func(t *testing.T) {
		repo := newFakeRepo()
		router := newTestRouter(repo, 1)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/requests?per_page=9999", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("code = %d", w.Code)
		}
		if repo.lastPage.perPage != workflow.MaxPerPage {
			t.Errorf("per_page = %d, attendu %d", repo.lastPage.perPage, workflow.MaxPerPage)
		}
	})
}

func TestRequestsHandlerExportCSV(t *testing.T) {
	t.Run("Given more requests than one listing page When exporting Then every row is present", func(t *testing.T) {
		// Sans archivage MinIO configuré, l'export est renvoyé en direct :
		// il doit couvrir toutes les pages du filtre, pas seulement la première
		repo := newFakeRepo()
		for i := int64(1); i <= 150; i++ {
			seedPending(repo, i)
		}
		router := newTestRouter(repo, 1)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("code = %d: %s", w.Code, w.Body.String())
		}
		lines := strings.Count(w.Body.String(), "\n")
		if lines != 151 { // en-tête + 150 demandes
			t.Errorf("%d lignes exportées, attendu 151", lines)
		}
	})
}

func TestRequestsHandlerTransitions(t *testing.T) {
	t.Run("Given a missing request When approving Then a 404 is returned", func(t *testing.T) {
		repo := newFakeRepo()
		router := newTestRouter(repo, 1)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/requests/999/approve", strings.NewReader(`{}`))
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("code = %d, attendu 404: %s", w.Code, w.Body.String())
		}
	})

	t.Run("Given no admin identity When approving Then a 403 is returned", func(t *testing.T) {
		repo := newFakeRepo()
		seedPending(repo, 7)
		router := newTestRouter(repo, 0)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/requests/7/approve", strings.NewReader(`{}`))
		router.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Fatalf("code = %d, attendu 403: %s", w.Code, w.Body.String())
		}
	})

	t.Run("Given a pending request When approving Then the stored status advances", func(t *testing.T) {
		repo := newFakeRepo()
		seedPending(repo, 7)
		router := newTestRouter(repo, 12)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/requests/7/approve",
			strings.NewReader(`{"approved_amount": 100.0, "admin_notes": "ok pour moi"}`))
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("code = %d: %s", w.Code, w.Body.String())
		}

		stored := repo.byID[7]
		if stored.Status != models.StatusApproved {
			t.Errorf("statut = %q, attendu approved", stored.Status)
		}
		if stored.ApprovedAmount == nil || *stored.ApprovedAmount != 100.0 {
			t.Errorf("montant approuvé = %v", stored.ApprovedAmount)
		}
		if stored.AdminID == nil || *stored.AdminID != 12 {
			t.Errorf("admin = %v", stored.AdminID)
		}
	})

	t.Run("Given an approved request When approving again Then a 409 is returned", func(t *testing.T) {
		repo := newFakeRepo()
		seedPending(repo, 7)
		router := newTestRouter(repo, 12)

		first := httptest.NewRecorder()
		router.ServeHTTP(first, httptest.NewRequest(http.MethodPatch, "/requests/7/approve", strings.NewReader(`{}`)))
		if first.Code != http.StatusOK {
			t.Fatalf("première approbation: %d", first.Code)
		}

		second := httptest.NewRecorder()
		router.ServeHTTP(second, httptest.NewRequest(http.MethodPatch, "/requests/7/approve", strings.NewReader(`{}`)))
		if second.Code != http.StatusConflict {
			t.Fatalf("code = %d, attendu 409: %s", second.Code, second.Body.String())
		}
	})

	t.Run("Given a short rejection reason When rejecting Then a 400 is returned and nothing is written", func(t *testing.T) {
		repo := newFakeRepo()
		seedPending(repo, 7)
		router := newTestRouter(repo, 12)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/requests/7/reject",
			strings.NewReader(`{"rejection_reason": "non"}`))
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("code = %d, attendu 400: %s", w.Code, w.Body.String())
		}
		if repo.byID[7].Status != models.StatusPending {
			t.Errorf("statut modifié malgré l'erreur: %q", repo.byID[7].Status)
		}
	})

	t.Run("Given the generic status endpoint When requesting an unknown status Then a 400 is returned", func(t *testing.T) {
		repo := newFakeRepo()
		seedPending(repo, 7)
		router := newTestRouter(repo, 12)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/requests/7/status",
			strings.NewReader(`{"status": "archived"}`))
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("code = %d, attendu 400: %s", w.Code, w.Body.String())
		}
	})

	t.Run("Given the generic status endpoint When rejecting with admin notes Then they serve as the reason", func(t *testing.T) {
		repo := newFakeRepo()
		seedPending(repo, 7)
		router := newTestRouter(repo, 12)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/requests/7/status",
			strings.NewReader(`{"status": "rejected", "admin_notes": "hors délai de rétractation"}`))
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("code = %d: %s", w.Code, w.Body.String())
		}
		stored := repo.byID[7]
		if stored.Status != models.StatusRejected {
			t.Errorf("statut = %q", stored.Status)
		}
		if stored.RejectionReason != "hors délai de rétractation" {
			t.Errorf("motif = %q", stored.RejectionReason)
		}
	})

	t.Run("Given a non numeric id When fetching Then a 400 is returned", func(t *testing.T) {
		repo := newFakeRepo()
		router := newTestRouter(repo, 1)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/requests/abc", nil))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("code = %d, attendu 400", w.Code)
		}
	})
}
