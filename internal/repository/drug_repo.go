package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kliniksentosa/klinik-api/internal/domain/drug"
)

type drugRepository struct {
	db *gorm.DB
}

func NewDrugRepository(db *gorm.DB) drug.Repository {
	return &drugRepository{db: db}
}

func (r *drugRepository) Create(ctx context.Context, d *drug.Drug) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return drug.ErrDrugAlreadyExists
		}
		return err
	}
	return nil
}

func (r *drugRepository) GetByID(ctx context.Context, id uuid.UUID) (*drug.Drug, error) {
	var d drug.Drug
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, drug.ErrDrugNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *drugRepository) GetBySKU(ctx context.Context, sku string) (*drug.Drug, error) {
	var d drug.Drug
	if err := r.db.WithContext(ctx).First(&d, "sku = ?", sku).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, drug.ErrDrugNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *drugRepository) Update(ctx context.Context, id uuid.UUID, cmd *drug.UpdateDrugCommand) (*drug.Drug, error) {
	d, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if cmd.Name != nil {
		updates["name"] = *cmd.Name
	}
	if cmd.Unit != nil {
		updates["unit"] = *cmd.Unit
	}
	if cmd.UnitPrice != nil {
		updates["unit_price"] = *cmd.UnitPrice
	}
	if cmd.MinStock != nil {
		updates["min_stock"] = *cmd.MinStock
	}
	if cmd.ExpiryDate != nil {
		updates["expiry_date"] = *cmd.ExpiryDate
	}

	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).Model(d).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return r.GetByID(ctx, id)
}

func (r *drugRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&drug.Drug{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return drug.ErrDrugNotFound
	}
	return nil
}

func (r *drugRepository) List(ctx context.Context, q *drug.ListDrugsQuery) (*drug.PagedDrugs, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	stmt := r.db.WithContext(ctx).Model(&drug.Drug{})
	if q.Search != "" {
		like := "%" + q.Search + "%"
		stmt = stmt.Where("name LIKE ? OR sku LIKE ?", like, like)
	}
	if q.LowStock {
		stmt = stmt.Where("min_stock > 0 AND stock_qty <= min_stock")
	}

	var count int64
	if err := stmt.Count(&count).Error; err != nil {
		return nil, err
	}

	var drugs []*drug.Drug
	err := stmt.
		Order("name ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&drugs).Error
	if err != nil {
		return nil, err
	}

	return &drug.PagedDrugs{
		Drugs:      drugs,
		TotalCount: count,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(count, pageSize),
	}, nil
}

func (r *drugRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&drug.Drug{}).
		Where("sku = ?", sku).
		Count(&count).Error
	return count > 0, err
}

func (r *drugRepository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (*drug.Drug, error) {
	d, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// The WHERE guard makes the check-and-decrement one atomic statement, so
	// concurrent dispenses serialize on the row instead of both passing a
	// stale read.
	res := r.db.WithContext(ctx).
		Model(&drug.Drug{}).
		Where("id = ? AND stock_qty >= ?", id, qty).
		UpdateColumn("stock_qty", gorm.Expr("stock_qty - ?", qty))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &drug.InsufficientStockError{
			DrugID:    d.ID.String(),
			DrugName:  d.Name,
			Available: d.StockQty,
			Requested: qty,
		}
	}
	return d, nil
}

func (r *drugRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*drug.Drug, error) {
	d, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	res := r.db.WithContext(ctx).
		Model(&drug.Drug{}).
		Where("id = ? AND stock_qty + ? >= 0", id, delta).
		UpdateColumn("stock_qty", gorm.Expr("stock_qty + ?", delta))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, drug.ErrStockWouldGoNegative
	}
	return d, nil
}

func (r *drugRepository) LogStockChange(ctx context.Context, entry *drug.StockAuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *drugRepository) ListStockAudit(ctx context.Context, drugID uuid.UUID, limit int) ([]*drug.StockAuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []*drug.StockAuditLog
	err := r.db.WithContext(ctx).
		Where("drug_id = ?", drugID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
