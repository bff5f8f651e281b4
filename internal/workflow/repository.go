package workflow

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"tribune_back_end/internal/models"
)

// ErrNotFound est retourné par GetByID quand la demande n'existe pas
var ErrNotFound = errors.New("demande introuvable")

// UpdateStatusParams décrit une transition à persister. La légalité de la
// transition est vérifiée par le service ; le dépôt ne fait que l'écriture
// conditionnelle (le statut stocké doit encore valoir ExpectedStatus)
type UpdateStatusParams struct {
	ID              int64
	ExpectedStatus  string
	NewStatus       string
	AdminID         int64
	AdminNotes      string
	RejectionReason string
	ApprovedAmount  *float64
	RefundReference string
	ReviewedAt      *time.Time
	ProcessedAt     *time.Time
}

// Statistics agrège l'état du workflow pour le dashboard admin
type Statistics struct {
	Total               int            `json:"total"`
	ByStatus            map[string]int `json:"by_status"`
	ByPriority          map[string]int `json:"by_priority"`
	TotalApprovedAmount float64        `json:"total_approved_amount"`
	StalePending        int            `json:"stale_pending"`
	StaleDays           int            `json:"stale_days"`
}

// Repository est la seule porte d'accès au stockage des demandes
type Repository interface {
	Create(ctx context.Context, req *models.Request) error
	GetByID(ctx context.Context, id int64) (*models.Request, error)
	GetAll(ctx context.Context, filters Filters, page, perPage int) ([]models.Request, int, error)
	UpdateStatus(ctx context.Context, params UpdateStatusParams) (bool, error)
	GetStatistics(ctx context.Context, staleDays int) (*Statistics, error)
}

// ScyllaRepository persiste les demandes dans la table requests du
// keyspace requests
type ScyllaRepository struct {
	session *gocql.Session
	timeout time.Duration
}

func NewScyllaRepository(session *gocql.Session) *ScyllaRepository {
	return &ScyllaRepository{session: session, timeout: 5 * time.Second}
}

const requestColumns = `request_id, reference, kind, booking_id, customer_id, customer_name,
	customer_email, reason, requested_amount, approved_amount, fee_amount, status, priority,
	admin_id, admin_notes, rejection_reason, refund_reference, requested_at, reviewed_at, processed_at`

func (r *ScyllaRepository) Create(ctx context.Context, req *models.Request) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.session.Query(`
		INSERT INTO requests (`+requestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, req.ID, req.Reference, req.Kind, req.BookingID, req.CustomerID, req.CustomerName,
		req.CustomerEmail, req.Reason, req.RequestedAmount, req.ApprovedAmount, req.FeeAmount,
		req.Status, req.Priority, req.AdminID, req.AdminNotes, req.RejectionReason,
		req.RefundReference, req.RequestedAt, req.ReviewedAt, req.ProcessedAt).
		WithContext(ctx).Exec()
}

func (r *ScyllaRepository) GetByID(ctx context.Context, id int64) (*models.Request, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var req models.Request
	err := r.session.Query(`SELECT `+requestColumns+` FROM requests WHERE request_id = ?`, id).
		WithContext(ctx).
		Scan(&req.ID, &req.Reference, &req.Kind, &req.BookingID, &req.CustomerID, &req.CustomerName,
			&req.CustomerEmail, &req.Reason, &req.RequestedAmount, &req.ApprovedAmount, &req.FeeAmount,
			&req.Status, &req.Priority, &req.AdminID, &req.AdminNotes, &req.RejectionReason,
			&req.RefundReference, &req.RequestedAt, &req.ReviewedAt, &req.ProcessedAt)
	if err == gocql.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// GetAll scanne la table puis filtre et pagine côté application : les
// prédicats de recherche (substring insensible à la casse) ne sont pas
// exprimables en CQL. Tri par requested_at décroissant, départagé par id
// décroissant pour une pagination stable
func (r *ScyllaRepository) GetAll(ctx context.Context, filters Filters, page, perPage int) ([]models.Request, int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	iter := r.session.Query(`SELECT ` + requestColumns + ` FROM requests`).
		WithContext(ctx).Iter()

	var matched []models.Request
	var req models.Request
	for iter.Scan(&req.ID, &req.Reference, &req.Kind, &req.BookingID, &req.CustomerID, &req.CustomerName,
		&req.CustomerEmail, &req.Reason, &req.RequestedAmount, &req.ApprovedAmount, &req.FeeAmount,
		&req.Status, &req.Priority, &req.AdminID, &req.AdminNotes, &req.RejectionReason,
		&req.RefundReference, &req.RequestedAt, &req.ReviewedAt, &req.ProcessedAt) {
		if matchesFilters(&req, filters) {
			matched = append(matched, req)
		}
		req = models.Request{}
	}
	if err := iter.Close(); err != nil {
		return nil, 0, err
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].RequestedAt.Equal(matched[j].RequestedAt) {
			return matched[i].RequestedAt.After(matched[j].RequestedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	start := (page - 1) * perPage
	if start >= total {
		return []models.Request{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func matchesFilters(req *models.Request, f Filters) bool {
	if f.CustomerID != "" && req.CustomerID != f.CustomerID {
		return false
	}
	if f.Status != "" && req.Status != f.Status {
		return false
	}
	if f.RefundStatus != "" && !(req.Kind == models.RequestKindRefund && req.Status == f.RefundStatus) {
		return false
	}
	if f.Priority != "" && req.Priority != f.Priority {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(req.CustomerName), needle) &&
			!strings.Contains(strings.ToLower(req.CustomerEmail), needle) &&
			!strings.Contains(strings.ToLower(req.Reference), needle) {
			return false
		}
	}

	// start_date/end_date et date_from/date_to bornent requested_at
	// inclusivement (deux conventions de nommage côté clients)
	lower, upper := f.StartDate, f.EndDate
	if lower == nil {
		lower = f.DateFrom
	}
	if upper == nil {
		upper = f.DateTo
	}
	if lower != nil && req.RequestedAt.Before(*lower) {
		return false
	}
	if upper != nil {
		endOfDay := upper.Add(24*time.Hour - time.Nanosecond)
		if req.RequestedAt.After(endOfDay) {
			return false
		}
	}
	return true
}

// UpdateStatus est une écriture conditionnelle unique : la transaction
// légère Scylla (IF status = ?) échoue si la ligne a déjà quitté le
// statut attendu, ce qui empêche deux admins concurrents d'écraser
// mutuellement leur transition
func (r *ScyllaRepository) UpdateStatus(ctx context.Context, p UpdateStatusParams) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cql := "UPDATE requests SET status = ?, admin_id = ?"
	args := []interface{}{p.NewStatus, p.AdminID}

	if p.AdminNotes != "" {
		cql += ", admin_notes = ?"
		args = append(args, p.AdminNotes)
	}
	if p.RejectionReason != "" {
		cql += ", rejection_reason = ?"
		args = append(args, p.RejectionReason)
	}
	if p.ApprovedAmount != nil {
		cql += ", approved_amount = ?"
		args = append(args, *p.ApprovedAmount)
	}
	if p.RefundReference != "" {
		cql += ", refund_reference = ?"
		args = append(args, p.RefundReference)
	}
	if p.ReviewedAt != nil {
		cql += ", reviewed_at = ?"
		args = append(args, *p.ReviewedAt)
	}
	if p.ProcessedAt != nil {
		cql += ", processed_at = ?"
		args = append(args, *p.ProcessedAt)
	}

	cql += " WHERE request_id = ? IF status = ?"
	args = append(args, p.ID, p.ExpectedStatus)

	var previous string
	applied, err := r.session.Query(cql, args...).WithContext(ctx).ScanCAS(&previous)
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *ScyllaRepository) GetStatistics(ctx context.Context, staleDays int) (*Statistics, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	stats := &Statistics{
		ByStatus:   make(map[string]int),
		ByPriority: make(map[string]int),
		StaleDays:  staleDays,
	}
	cutoff := time.Now().AddDate(0, 0, -staleDays)

	iter := r.session.Query(`SELECT status, priority, approved_amount, requested_at FROM requests`).
		WithContext(ctx).Iter()

	var status, priority string
	var approved *float64
	var requestedAt time.Time
	for iter.Scan(&status, &priority, &approved, &requestedAt) {
		stats.Total++
		stats.ByStatus[status]++
		stats.ByPriority[priority]++
		if approved != nil {
			stats.TotalApprovedAmount += *approved
		}
		if status == models.StatusPending && requestedAt.Before(cutoff) {
			stats.StalePending++
		}
		approved = nil
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return stats, nil
}
