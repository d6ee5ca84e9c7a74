package mysql

import (
	"context"
	"errors"

	"bookstore/domain/customerorder"
	"bookstore/domain/order"
	"bookstore/domain/shared"
	"bookstore/infrastructure/persistence/mysql/po"
	"bookstore/infrastructure/persistence/specification"

	"gorm.io/gorm"
)

// CustomerOrderRepository persists the customer order aggregate across the
// customer_orders, orders and order_items tables.
type CustomerOrderRepository struct {
	db         *gorm.DB
	translator specification.Translator
}

func NewCustomerOrderRepository(db *gorm.DB) *CustomerOrderRepository {
	return &CustomerOrderRepository{
		db:         db,
		translator: specification.NewGormTranslator(),
	}
}

func (r *CustomerOrderRepository) Save(ctx context.Context, co *customerorder.CustomerOrder) error {
	if inTransaction(ctx) {
		return r.saveWithTx(getDB(ctx, r.db), co)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.saveWithTx(tx, co)
	})
}

func (r *CustomerOrderRepository) saveWithTx(tx *gorm.DB, co *customerorder.CustomerOrder) error {
	coPO, orderPOs, itemPOs := po.FromCustomerOrderDomain(co)

	if co.IsNew() {
		if err := tx.Create(coPO).Error; err != nil {
			if isDuplicateKeyError(err) {
				return customerorder.NewInvalidCustomerOrderError("customer order " + co.ID() + " already exists")
			}
			return err
		}
		if len(orderPOs) > 0 {
			if err := tx.Create(&orderPOs).Error; err != nil {
				return err
			}
		}
		if len(itemPOs) > 0 {
			if err := tx.Create(&itemPOs).Error; err != nil {
				return err
			}
		}
		co.ClearDirtyTracking()
		return nil
	}

	expectedVersion := co.Version()
	columns := coPO.StatusColumns()
	columns["version"] = expectedVersion + 1

	result := tx.Model(&po.CustomerOrderPO{}).
		Where("id = ? AND version = ?", co.ID(), expectedVersion).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&po.CustomerOrderPO{}).Where("id = ?", co.ID()).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return customerorder.NewCustomerOrderNotFoundError(co.ID())
		}
		return customerorder.NewConcurrentModificationError(co.ID())
	}

	for i := range orderPOs {
		oPO := &orderPOs[i]
		cols := oPO.StatusColumns()
		cols["version"] = oPO.Version + 1

		result := tx.Model(&po.OrderPO{}).
			Where("id = ? AND version = ?", oPO.ID, oPO.Version).
			Updates(cols)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return order.NewConcurrentModificationError(oPO.ID)
		}
	}

	co.IncrementVersionForSave()
	for _, o := range co.Orders() {
		o.IncrementVersionForSave()
	}
	co.ClearDirtyTracking()
	return nil
}

func (r *CustomerOrderRepository) FindByID(ctx context.Context, id string) (*customerorder.CustomerOrder, error) {
	return r.findOne(ctx, id, "id = ?", id)
}

func (r *CustomerOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*customerorder.CustomerOrder, error) {
	var orderPO po.OrderPO
	if err := getDB(ctx, r.db).Select("customer_order_id").First(&orderPO, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.NewOrderNotFoundError(orderID)
		}
		return nil, err
	}
	return r.FindByID(ctx, orderPO.CustomerOrderID)
}

func (r *CustomerOrderRepository) FindByGatewayTxnRef(ctx context.Context, txnRef string) (*customerorder.CustomerOrder, error) {
	return r.findOne(ctx, txnRef, "gateway_txn_ref = ?", txnRef)
}

// Find returns matches newest first. Specifications the translator does
// not know are applied in memory.
func (r *CustomerOrderRepository) Find(ctx context.Context, spec shared.Specification) ([]*customerorder.CustomerOrder, error) {
	db := getDB(ctx, r.db).Model(&po.CustomerOrderPO{})

	query := r.translator.Translate(spec)
	if query != nil {
		db = query(db)
	}

	var coPOs []po.CustomerOrderPO
	if err := db.Order("created_at DESC").Find(&coPOs).Error; err != nil {
		return nil, err
	}

	cos, err := r.assemble(ctx, coPOs)
	if err != nil {
		return nil, err
	}
	if query != nil || spec == nil {
		return cos, nil
	}

	out := make([]*customerorder.CustomerOrder, 0, len(cos))
	for _, co := range cos {
		if spec.IsSatisfiedBy(ctx, co) {
			out = append(out, co)
		}
	}
	return out, nil
}

func (r *CustomerOrderRepository) findOne(ctx context.Context, key, query string, args ...interface{}) (*customerorder.CustomerOrder, error) {
	var coPO po.CustomerOrderPO
	if err := getDB(ctx, r.db).Where(query, args...).First(&coPO).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerorder.NewCustomerOrderNotFoundError(key)
		}
		return nil, err
	}

	cos, err := r.assemble(ctx, []po.CustomerOrderPO{coPO})
	if err != nil {
		return nil, err
	}
	return cos[0], nil
}

// assemble loads the sub-orders and items of every row with two queries.
func (r *CustomerOrderRepository) assemble(ctx context.Context, coPOs []po.CustomerOrderPO) ([]*customerorder.CustomerOrder, error) {
	if len(coPOs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(coPOs))
	for i := range coPOs {
		ids[i] = coPOs[i].ID
	}

	var orderPOs []po.OrderPO
	err := getDB(ctx, r.db).Where("customer_order_id IN ?", ids).
		Order("customer_order_id, sequence").
		Find(&orderPOs).Error
	if err != nil {
		return nil, err
	}

	orders, err := loadOrders(ctx, getDB(ctx, r.db), orderPOs)
	if err != nil {
		return nil, err
	}

	byParent := make(map[string][]*order.Order, len(coPOs))
	for _, o := range orders {
		byParent[o.CustomerOrderID()] = append(byParent[o.CustomerOrderID()], o)
	}

	out := make([]*customerorder.CustomerOrder, len(coPOs))
	for i := range coPOs {
		out[i] = coPOs[i].ToDomain(byParent[coPOs[i].ID])
	}
	return out, nil
}

// loadOrders attaches items to orderPOs, keeping their order.
func loadOrders(ctx context.Context, db *gorm.DB, orderPOs []po.OrderPO) ([]*order.Order, error) {
	if len(orderPOs) == 0 {
		return nil, nil
	}

	orderIDs := make([]string, len(orderPOs))
	for i := range orderPOs {
		orderIDs[i] = orderPOs[i].ID
	}

	var itemPOs []po.OrderItemPO
	if err := db.Where("order_id IN ?", orderIDs).Order("id").Find(&itemPOs).Error; err != nil {
		return nil, err
	}

	itemsByOrder := make(map[string][]po.OrderItemPO, len(orderPOs))
	for _, item := range itemPOs {
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}

	out := make([]*order.Order, len(orderPOs))
	for i := range orderPOs {
		out[i] = orderPOs[i].ToDomain(itemsByOrder[orderPOs[i].ID])
	}
	return out, nil
}

var _ customerorder.Repository = (*CustomerOrderRepository)(nil)

// ============================================================================
// Order read side
// ============================================================================

// OrderRepository reads single sub-orders. Writes go through
// CustomerOrderRepository.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	db := getDB(ctx, r.db)

	var orderPO po.OrderPO
	if err := db.First(&orderPO, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.NewOrderNotFoundError(id)
		}
		return nil, err
	}

	orders, err := loadOrders(ctx, db, []po.OrderPO{orderPO})
	if err != nil {
		return nil, err
	}
	return orders[0], nil
}

func (r *OrderRepository) FindBySellerID(ctx context.Context, sellerID string) ([]*order.Order, error) {
	db := getDB(ctx, r.db)

	var orderPOs []po.OrderPO
	if err := db.Where("seller_id = ?", sellerID).Order("created_at DESC").Find(&orderPOs).Error; err != nil {
		return nil, err
	}
	return loadOrders(ctx, db, orderPOs)
}

var _ order.Repository = (*OrderRepository)(nil)
