package workflow

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"tribune_back_end/internal/models"
)

// Actions d'audit émises par le service
const (
	ActionSubmit          = "request.submit"
	ActionApprove         = "request.approve"
	ActionReject          = "request.reject"
	ActionStartProcessing = "request.start_processing"
	ActionComplete        = "request.complete"
)

// Bornes de pagination appliquées avant d'atteindre le dépôt
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// AuditEvent décrit une transition commise, à destination du journal
// d'audit. L'émission est best-effort : un échec d'audit ne remet jamais
// en cause la transition déjà persistée
type AuditEvent struct {
	AdminID    int64     `json:"admin_id"`
	Action     string    `json:"action"`
	RequestID  int64     `json:"request_id"`
	Reference  string    `json:"reference"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Details    string    `json:"details,omitempty"`
	At         time.Time `json:"at"`
}

// Notifier consomme les événements d'audit de façon asynchrone
type Notifier interface {
	Notify(event AuditEvent)
}

// Service est le seul endroit où règles métier et persistance se
// combinent : il garantit qu'une demande n'avance que le long du graphe
// de transitions légal
type Service struct {
	repo      Repository
	notifier  Notifier
	nextID    func(ctx context.Context) (int64, error)
	now       func() time.Time
	staleDays int
}

// NewService construit le service avec ses dépendances injectées,
// sans singleton de package
func NewService(repo Repository, notifier Notifier, nextID func(ctx context.Context) (int64, error)) *Service {
	staleDays := 7
	if raw := os.Getenv("REQUESTS_STALE_DAYS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			staleDays = n
		}
	}
	return &Service{
		repo:      repo,
		notifier:  notifier,
		nextID:    nextID,
		now:       time.Now,
		staleDays: staleDays,
	}
}

// SubmitParams est la création côté client d'une demande en statut pending
type SubmitParams struct {
	Kind          string
	BookingID     string
	CustomerID    string
	CustomerName  string
	CustomerEmail string
	Reason        string
	Amount        float64
	FeeAmount     float64
	Priority      string
}

// Submit crée une demande en statut pending avec une référence unique
func (s *Service) Submit(ctx context.Context, p SubmitParams) (*models.Request, error) {
	fields := map[string]string{}
	if p.Kind != models.RequestKindCancellation && p.Kind != models.RequestKindRefund {
		fields["kind"] = fmt.Sprintf("type de demande inconnu: %s", p.Kind)
	}
	if p.Amount <= 0 {
		fields["requested_amount"] = "le montant demandé doit être strictement positif"
	}
	if len([]rune(strings.TrimSpace(p.Reason))) < MinReasonLength {
		fields["reason"] = fmt.Sprintf("motif requis (%d caractères minimum)", MinReasonLength)
	}
	if p.Priority == "" {
		p.Priority = models.PriorityNormal
	} else if !validPriorities[p.Priority] {
		fields["priority"] = fmt.Sprintf("priorité inconnue: %s", p.Priority)
	}
	if len(fields) > 0 {
		return nil, validationErr(fields)
	}

	id, err := s.nextID(ctx)
	if err != nil {
		return nil, storageErr(err)
	}

	now := s.now()
	req := &models.Request{
		ID:              id,
		Reference:       fmt.Sprintf("REQ-%d-%06d", now.Year(), id),
		Kind:            p.Kind,
		BookingID:       p.BookingID,
		CustomerID:      p.CustomerID,
		CustomerName:    p.CustomerName,
		CustomerEmail:   p.CustomerEmail,
		Reason:          strings.TrimSpace(p.Reason),
		RequestedAmount: p.Amount,
		FeeAmount:       p.FeeAmount,
		Status:          models.StatusPending,
		Priority:        p.Priority,
		RequestedAt:     now,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, storageErr(err)
	}
	return req, nil
}

// Approve fait passer une demande pending en approved, avec un montant
// approuvé optionnel plafonné au montant demandé
func (s *Service) Approve(ctx context.Context, id, adminID int64, approvedAmount *float64, notes string) (*models.Request, error) {
	req, err := s.loadForTransition(ctx, id, adminID, models.StatusApproved)
	if err != nil {
		return nil, err
	}

	if approvedAmount != nil {
		if *approvedAmount < 0 {
			return nil, validationErr(map[string]string{
				"approved_amount": "le montant approuvé doit être positif",
			})
		}
		if *approvedAmount > req.RequestedAmount {
			return nil, validationErr(map[string]string{
				"approved_amount": fmt.Sprintf("le montant approuvé (%.2f) dépasse le montant demandé (%.2f)",
					*approvedAmount, req.RequestedAmount),
			})
		}
	}

	reviewedAt := s.now()
	return s.commit(ctx, req, ActionApprove, UpdateStatusParams{
		ID:             id,
		ExpectedStatus: req.Status,
		NewStatus:      models.StatusApproved,
		AdminID:        adminID,
		AdminNotes:     notes,
		ApprovedAmount: approvedAmount,
		ReviewedAt:     &reviewedAt,
	})
}

// Reject fait passer une demande pending en rejected ; le motif est
// obligatoire et doit faire au moins MinReasonLength caractères
func (s *Service) Reject(ctx context.Context, id, adminID int64, reason string) (*models.Request, error) {
	req, err := s.loadForTransition(ctx, id, adminID, models.StatusRejected)
	if err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < MinReasonLength {
		return nil, validationErr(map[string]string{
			"rejection_reason": fmt.Sprintf("motif de rejet requis (%d caractères minimum)", MinReasonLength),
		})
	}

	reviewedAt := s.now()
	return s.commit(ctx, req, ActionReject, UpdateStatusParams{
		ID:              id,
		ExpectedStatus:  req.Status,
		NewStatus:       models.StatusRejected,
		AdminID:         adminID,
		RejectionReason: reason,
		ReviewedAt:      &reviewedAt,
	})
}

// StartProcessing fait passer un remboursement approuvé en processing,
// le temps que le prestataire de paiement exécute le virement
func (s *Service) StartProcessing(ctx context.Context, id, adminID int64) (*models.Request, error) {
	req, err := s.loadForTransition(ctx, id, adminID, models.StatusProcessing)
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, req, ActionStartProcessing, UpdateStatusParams{
		ID:             id,
		ExpectedStatus: req.Status,
		NewStatus:      models.StatusProcessing,
		AdminID:        adminID,
	})
}

// Complete clôt une demande approuvée (ou en cours de traitement pour un
// remboursement) et enregistre la référence du prestataire de paiement
func (s *Service) Complete(ctx context.Context, id, adminID int64, refundReference, notes string) (*models.Request, error) {
	req, err := s.loadForTransition(ctx, id, adminID, models.StatusCompleted)
	if err != nil {
		return nil, err
	}

	processedAt := s.now()
	return s.commit(ctx, req, ActionComplete, UpdateStatusParams{
		ID:              id,
		ExpectedStatus:  req.Status,
		NewStatus:       models.StatusCompleted,
		AdminID:         adminID,
		AdminNotes:      notes,
		RefundReference: refundReference,
		ProcessedAt:     &processedAt,
	})
}

// loadForTransition charge la demande et vérifie les préconditions
// communes à toutes les mutations
func (s *Service) loadForTransition(ctx context.Context, id, adminID int64, requested string) (*models.Request, error) {
	if adminID <= 0 {
		return nil, unauthorizedErr()
	}

	req, err := s.repo.GetByID(ctx, id)
	if err == ErrNotFound {
		return nil, notFoundErr(id)
	}
	if err != nil {
		return nil, storageErr(err)
	}

	if errs := ValidateStatusTransition(req.Kind, req.Status, requested); errs != nil {
		return nil, invalidTransitionErr(req.Status, requested)
	}
	return req, nil
}

// commit persiste la transition par écriture conditionnelle puis émet
// l'événement d'audit sur une goroutine. Un échec CAS signifie qu'une
// mutation concurrente a gagné : on le remonte en InvalidTransition,
// jamais en écrasement silencieux
func (s *Service) commit(ctx context.Context, req *models.Request, action string, p UpdateStatusParams) (*models.Request, error) {
	applied, err := s.repo.UpdateStatus(ctx, p)
	if err != nil {
		return nil, storageErr(err)
	}
	if !applied {
		return nil, &Error{
			Kind:    KindInvalidTransition,
			Message: fmt.Sprintf("la demande %d a déjà quitté le statut %s", p.ID, p.ExpectedStatus),
		}
	}

	fromStatus := req.Status
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

	if s.notifier != nil {
		event := AuditEvent{
			AdminID:    p.AdminID,
			Action:     action,
			RequestID:  req.ID,
			Reference:  req.Reference,
			FromStatus: fromStatus,
			ToStatus:   p.NewStatus,
			Details:    strings.TrimSpace(p.AdminNotes + " " + p.RejectionReason),
			At:         s.now(),
		}
		go s.notifier.Notify(event)
	}
	return req, nil
}

// GetByID retourne une demande ou une erreur NotFound
func (s *Service) GetByID(ctx context.Context, id int64) (*models.Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err == ErrNotFound {
		return nil, notFoundErr(id)
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return req, nil
}

// List applique le clamp de pagination ([1,∞) / [1,100]) puis délègue
// au dépôt
func (s *Service) List(ctx context.Context, filters Filters, page, perPage int) ([]models.Request, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	items, total, err := s.repo.GetAll(ctx, filters, page, perPage)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	return items, total, nil
}

// GetStatistics relaie l'agrégat du dépôt sans logique supplémentaire
func (s *Service) GetStatistics(ctx context.Context) (*Statistics, error) {
	stats, err := s.repo.GetStatistics(ctx, s.staleDays)
	if err != nil {
		return nil, storageErr(err)
	}
	return stats, nil
}
