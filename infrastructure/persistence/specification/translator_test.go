package specification

import (
	"context"
	"testing"
	"time"

	"bookstore/domain/customerorder"
	"bookstore/domain/order"
	"bookstore/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func dryRunDB(t *testing.T) *gorm.DB {
	// the driver connects lazily; nothing is dialled in dry-run mode
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "user:pass@tcp(127.0.0.1:3306)/bookstore?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

type row struct {
	ID string
}

func (row) TableName() string { return "customer_orders" }

func toSQL(t *testing.T, spec shared.Specification) string {
	db := dryRunDB(t)
	q := NewGormTranslator().Translate(spec)
	require.NotNil(t, q)
	return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []row
		return q(tx.Model(&row{})).Find(&rows)
	})
}

func TestTranslate_Concrete(t *testing.T) {
	sql := toSQL(t, customerorder.NewByBuyerIDSpecification("buyer-1"))
	assert.Contains(t, sql, "buyer_id = 'buyer-1'")

	sql = toSQL(t, order.NewBySellerIDSpecification("seller-9"))
	assert.Contains(t, sql, "seller_id = 'seller-9'")
}

func TestTranslate_DateRangeIsHalfOpen(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	sql := toSQL(t, customerorder.NewByDateRangeSpecification(start, end))
	assert.Contains(t, sql, "created_at >= ")
	assert.Contains(t, sql, "created_at < ")
	assert.NotContains(t, sql, "created_at <= ")
}

func TestTranslate_AndCombinesBothSides(t *testing.T) {
	spec := shared.AllOf(
		customerorder.NewByBuyerIDSpecification("buyer-1"),
		customerorder.NewByStatusSpecification(order.StatusCancelled),
	)

	sql := toSQL(t, spec)
	assert.Contains(t, sql, "buyer_id = 'buyer-1'")
	assert.Contains(t, sql, "status = 'CANCELLED'")
}

func TestTranslate_Not(t *testing.T) {
	spec := shared.NotSpecification{Spec: customerorder.NewByStatusSpecification(order.StatusCancelled)}

	sql := toSQL(t, spec)
	assert.Contains(t, sql, "NOT")
	assert.Contains(t, sql, "'CANCELLED'")
}

func TestTranslate_UnknownSpecification(t *testing.T) {
	assert.Nil(t, NewGormTranslator().Translate(unknownSpec{}))
	assert.Nil(t, NewGormTranslator().Translate(nil))
}

type unknownSpec struct{}

func (unknownSpec) IsSatisfiedBy(_ context.Context, _ interface{}) bool { return true }
