package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kliniksentosa/klinik-api/internal/domain"
	"github.com/kliniksentosa/klinik-api/internal/domain/drug"
	"github.com/kliniksentosa/klinik-api/internal/repository"
	"github.com/kliniksentosa/klinik-api/pkg/metrics"
)

// DrugService manages the pharmacy catalog and stock. Every stock mutation
// pairs with a StockAuditLog row in the same transaction.
type DrugService struct {
	repos       *repository.Registry
	activitySvc *ActivityService
	metrics     *metrics.Collector
	log         *zap.Logger
}

func NewDrugService(repos *repository.Registry, activitySvc *ActivityService, collector *metrics.Collector, log *zap.Logger) *DrugService {
	return &DrugService{repos: repos, activitySvc: activitySvc, metrics: collector, log: log}
}

func (s *DrugService) Create(ctx context.Context, cmd *drug.CreateDrugCommand, actor domain.Actor) (*drug.Drug, error) {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RolePharmacist {
		return nil, ErrForbidden
	}

	var fields []string
	if cmd.Name == "" {
		fields = append(fields, "name is required")
	}
	if cmd.SKU == "" {
		fields = append(fields, "sku is required")
	}
	if cmd.UnitPrice < 0 {
		fields = append(fields, "unit_price must not be negative")
	}
	if cmd.StockQty < 0 {
		fields = append(fields, "stock_qty must not be negative")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	var created *drug.Drug
	err := s.repos.Transaction(ctx, func(tx *repository.Registry) error {
		d := &drug.Drug{
			Name:       cmd.Name,
			SKU:        cmd.SKU,
			Unit:       cmd.Unit,
			UnitPrice:  cmd.UnitPrice,
			StockQty:   cmd.StockQty,
			MinStock:   cmd.MinStock,
			ExpiryDate: cmd.ExpiryDate,
			CreatedBy:  actor.UserID,
		}
		if err := tx.Drugs.Create(ctx, d); err != nil {
			return fmt.Errorf("creating drug: %w", err)
		}

		if d.StockQty > 0 {
			if err := tx.Drugs.LogStockChange(ctx, &drug.StockAuditLog{
				DrugID:   d.ID,
				Action:   drug.ActionStockIn,
				Quantity: d.StockQty,
				OldStock: 0,
				NewStock: d.StockQty,
				UserID:   actor.UserID,
				Reason:   "initial stock",
			}); err != nil {
				return fmt.Errorf("recording stock audit: %w", err)
			}
		}

		if err := tx.Activities.Append(ctx, NewActivityLog(
			actor, domain.ActionCreate, "drug", d.ID.String(), nil, d)); err != nil {
			return fmt.Errorf("recording activity: %w", err)
		}

		created = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("drug created",
		zap.String("drug_id", created.ID.String()),
		zap.String("sku", created.SKU),
		zap.Int("stock_qty", created.StockQty),
	)

	return created, nil
}

func (s *DrugService) Update(ctx context.Context, id uuid.UUID, cmd *drug.UpdateDrugCommand, actor domain.Actor) (*drug.Drug, error) {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RolePharmacist {
		return nil, ErrForbidden
	}

	existing, err := s.repos.Drugs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.repos.Drugs.Update(ctx, id, cmd)
	if err != nil {
		return nil, fmt.Errorf("updating drug: %w", err)
	}

	s.activitySvc.LogAsync(actor, domain.ActionUpdate, "drug", id.String(), existing, updated)
	return updated, nil
}

// AdjustStock applies an administrative correction or restock. The guarded
// update rejects any delta that would leave the stock negative, and the audit
// row commits or rolls back together with the adjustment.
func (s *DrugService) AdjustStock(ctx context.Context, id uuid.UUID, cmd *drug.AdjustStockCommand, actor domain.Actor) (*drug.Drug, error) {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RolePharmacist {
		return nil, ErrForbidden
	}
	if cmd.Delta == 0 {
		return nil, &ValidationError{Fields: []string{"delta must not be zero"}}
	}

	action := drug.ActionStockAdjusted
	if cmd.Delta > 0 {
		action = drug.ActionStockIn
	}

	var adjusted *drug.Drug
	err := s.repos.Transaction(ctx, func(tx *repository.Registry) error {
		d, err := tx.Drugs.AdjustStock(ctx, id, cmd.Delta)
		if err != nil {
			return err
		}

		if err := tx.Drugs.LogStockChange(ctx, &drug.StockAuditLog{
			DrugID:   d.ID,
			Action:   action,
			Quantity: cmd.Delta,
			OldStock: d.StockQty,
			NewStock: d.StockQty + cmd.Delta,
			UserID:   actor.UserID,
			Reason:   cmd.Reason,
		}); err != nil {
			return fmt.Errorf("recording stock audit: %w", err)
		}

		if err := tx.Activities.Append(ctx, NewActivityLog(
			actor, domain.ActionStockAdjust, "drug", d.ID.String(),
			map[string]any{"stock_qty": d.StockQty},
			map[string]any{"stock_qty": d.StockQty + cmd.Delta, "reason": cmd.Reason},
		)); err != nil {
			return fmt.Errorf("recording activity: %w", err)
		}

		adjusted = d
		adjusted.StockQty += cmd.Delta
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StockAdjustments.Inc()
	s.log.Info("stock adjusted",
		zap.String("drug_id", id.String()),
		zap.Int("delta", cmd.Delta),
		zap.Int("new_stock", adjusted.StockQty),
	)

	return adjusted, nil
}

func (s *DrugService) Get(ctx context.Context, id uuid.UUID, actor domain.Actor) (*drug.Drug, error) {
	if !actor.Role.IsStaff() {
		return nil, ErrForbidden
	}
	return s.repos.Drugs.GetByID(ctx, id)
}

func (s *DrugService) List(ctx context.Context, q *drug.ListDrugsQuery, actor domain.Actor) (*drug.PagedDrugs, error) {
	if !actor.Role.IsStaff() {
		return nil, ErrForbidden
	}
	return s.repos.Drugs.List(ctx, q)
}

// StockAudit returns the audit trail for one drug, newest first.
func (s *DrugService) StockAudit(ctx context.Context, drugID uuid.UUID, limit int, actor domain.Actor) ([]*drug.StockAuditLog, error) {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RolePharmacist {
		return nil, ErrForbidden
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repos.Drugs.ListStockAudit(ctx, drugID, limit)
}

func (s *DrugService) Deactivate(ctx context.Context, id uuid.UUID, actor domain.Actor) error {
	if actor.Role != domain.RoleAdmin {
		return ErrForbidden
	}

	existing, err := s.repos.Drugs.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repos.Drugs.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("deactivating drug: %w", err)
	}

	s.activitySvc.LogAsync(actor, domain.ActionDelete, "drug", id.String(), existing, nil)
	return nil
}
