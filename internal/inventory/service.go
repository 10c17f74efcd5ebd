package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yutosugimura/saltbreeze-backend/internal/catalog"
	pkgerrors "github.com/yutosugimura/saltbreeze-backend/pkg/errors"
	"github.com/yutosugimura/saltbreeze-backend/pkg/logger"
)

// Service is the inventory ledger: every stock mutation in the system goes
// through Adjust so the clamp-at-zero rule is applied in exactly one place.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Adjust(ctx context.Context, productID uuid.UUID, size string, delta int) (int, error)
}

type service struct {
	repo catalog.Repository
	logg *logger.Logger
}

// NewService builds the inventory ledger over the catalog repository.
func NewService(repo catalog.Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx), logg: s.logg}
}

// Adjust applies delta to the per-size stock counter and returns the new
// value. The result is clamped at zero so oversold stock never goes negative,
// and a size with no entry yet is created from an implicit zero.
func (s *service) Adjust(ctx context.Context, productID uuid.UUID, size string, delta int) (int, error) {
	if productID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if size == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "size required")
	}

	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	current := product.Sizes.StockFor(size)
	next := current + delta
	if next < 0 {
		next = 0
	}

	if err := s.repo.UpdateSizes(ctx, productID, product.Sizes.WithStock(size, next)); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist stock adjustment")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"product_id": productID.String(),
		"size":       size,
		"delta":      delta,
		"stock":      next,
	}), "inventory adjusted")

	return next, nil
}
