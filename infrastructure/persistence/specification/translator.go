package specification

import (
	"bookstore/domain/customerorder"
	"bookstore/domain/order"
	"bookstore/domain/shared"

	"gorm.io/gorm"
)

// Translator converts domain specifications to GORM queries
type Translator interface {
	// Translate returns nil if the specification type is not supported
	Translate(spec shared.Specification) func(*gorm.DB) *gorm.DB
}

// GormTranslator implements Translator for GORM
type GormTranslator struct{}

func NewGormTranslator() *GormTranslator {
	return &GormTranslator{}
}

// Translate converts a domain specification to a GORM query function
func (t *GormTranslator) Translate(spec shared.Specification) func(*gorm.DB) *gorm.DB {
	if spec == nil {
		return nil
	}

	switch s := spec.(type) {
	case shared.AndSpecification:
		return t.translateAnd(s)
	case shared.NotSpecification:
		return t.translateNot(s)
	}

	return t.translateConcrete(spec)
}

func (t *GormTranslator) translateAnd(spec shared.AndSpecification) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q := t.Translate(spec.Left); q != nil {
			db = q(db)
		}
		if q := t.Translate(spec.Right); q != nil {
			db = q(db)
		}
		return db
	}
}

func (t *GormTranslator) translateNot(spec shared.NotSpecification) func(*gorm.DB) *gorm.DB {
	inner := t.Translate(spec.Spec)
	if inner == nil {
		return nil
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Not(group(db, inner))
	}
}

// group builds q's conditions on a fresh statement so they can be nested
// in parentheses.
func group(db *gorm.DB, q func(*gorm.DB) *gorm.DB) *gorm.DB {
	return q(db.Session(&gorm.Session{NewDB: true}))
}

func (t *GormTranslator) translateConcrete(spec shared.Specification) func(*gorm.DB) *gorm.DB {
	switch s := spec.(type) {
	case customerorder.ByBuyerIDSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("buyer_id = ?", s.BuyerID)
		}
	case customerorder.ByStatusSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", string(s.Status))
		}
	case customerorder.ByDateRangeSpecification:
		return func(db *gorm.DB) *gorm.DB {
			if !s.Start.IsZero() {
				db = db.Where("created_at >= ?", s.Start)
			}
			if !s.End.IsZero() {
				db = db.Where("created_at < ?", s.End)
			}
			return db
		}
	}

	switch s := spec.(type) {
	case order.BySellerIDSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("seller_id = ?", s.SellerID)
		}
	case order.ByStatusSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", string(s.Status))
		}
	}

	return nil
}
