package repository

import (
	"context"
	"errors"
	"fmt"
	"github.com/jackc/pgx/v5"
	"github.com/rookgm/storefront/internal/models"
	"github.com/rookgm/storefront/internal/repository/postgres"
	"strings"
	"time"
)

const pgErrUniqueViolationCode = "23505"

const orderColumns = `id, stripe_session_id, stripe_payment_id, total, status, customer_email, customer_name, user_id, created_at, updated_at`

const (
	insertOrderQuery = `
						INSERT INTO orders (id, stripe_session_id, stripe_payment_id, total, status, customer_email, customer_name, user_id)
						VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
						RETURNING created_at, updated_at
`
	insertOrderItemQuery = `
						INSERT INTO order_items (order_id, product_id, quantity, price, title, subtitle)
						VALUES ($1, $2, $3, $4, $5, $6)
						RETURNING id
`
	selectOrderBySessionIDQuery = `
						SELECT ` + orderColumns + ` FROM orders
						WHERE stripe_session_id = $1
`
	selectOrderByIDQuery = `
						SELECT ` + orderColumns + ` FROM orders
						WHERE id = $1
`
	selectOrderByPaymentRefQuery = `
						SELECT ` + orderColumns + ` FROM orders
						WHERE ($1 <> '' AND stripe_payment_id = $1)
						   OR ($2 <> '' AND stripe_session_id = $2)
						   OR ($3 <> '' AND id::text = $3)
						ORDER BY created_at
						LIMIT 1
`
	selectOrderItemsQuery = `
						SELECT id, order_id, product_id, quantity, price, title, subtitle FROM order_items
						WHERE order_id = ANY(($1::text[])::uuid[])
						ORDER BY id
`
	// status gated transition, a concurrent writer that already moved the order makes this a no-op
	markOrderPaidQuery = `
						UPDATE orders
						SET status = 'PAID',
						    stripe_payment_id = COALESCE(NULLIF($2, ''), stripe_payment_id),
						    customer_email = CASE WHEN customer_email = '' THEN $3 ELSE customer_email END,
						    customer_name = CASE WHEN customer_name = '' THEN $4 ELSE customer_name END,
						    updated_at = now()
						WHERE id = $1 AND status = 'PENDING'
`
	cancelPendingOrderQuery = `
						UPDATE orders
						SET status = 'CANCELLED', updated_at = now()
						WHERE id = $1 AND status = 'PENDING'
`
	// guest checkout leaves customer details blank until the processor reports them
	fillCustomerQuery = `
						UPDATE orders
						SET customer_email = $2,
						    customer_name = CASE WHEN customer_name = '' THEN $3 ELSE customer_name END,
						    updated_at = now()
						WHERE id = $1 AND customer_email = ''
`
	claimOrderConfirmationQuery = `
						UPDATE orders
						SET order_confirmation_sent = TRUE
						WHERE id = $1 AND customer_email <> '' AND NOT order_confirmation_sent
`
	claimPaymentConfirmationQuery = `
						UPDATE orders
						SET payment_confirmation_sent = TRUE
						WHERE id = $1 AND customer_email <> '' AND NOT payment_confirmation_sent
`
	updateOrderStatusQuery = `
						UPDATE orders
						SET status = $2, updated_at = now()
						WHERE id = $1
`
	selectStalePendingQuery = `
						SELECT ` + orderColumns + ` FROM orders
						WHERE status = 'PENDING' AND created_at < $1
						ORDER BY created_at
						LIMIT $2
`
	selectOrderStatsQuery = `
						SELECT
							count(*),
							COALESCE(sum(total) FILTER (WHERE status IN ('PAID', 'PROCESSING', 'SHIPPED', 'DELIVERED')), 0),
							count(*) FILTER (WHERE status = 'PENDING'),
							count(*) FILTER (WHERE status = 'DELIVERED'),
							count(*) FILTER (WHERE created_at >= $1)
						FROM orders
`
)

// OrderRepository implements OrderRepository interface
type OrderRepository struct {
	db *postgres.DB
}

// NewOrderRepository creates new OrderRepository instance
func NewOrderRepository(db *postgres.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateOrder inserts order and all its items in one transaction
func (or *OrderRepository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	err := or.db.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, insertOrderQuery,
			order.ID,
			order.SessionID,
			order.PaymentID,
			order.Total,
			string(order.Status),
			order.CustomerEmail,
			order.CustomerName,
			order.UserID,
		).Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return err
		}

		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID
			err := tx.QueryRow(ctx, insertOrderItemQuery,
				item.OrderID,
				item.ProductID,
				item.Quantity,
				item.Price,
				item.Title,
				item.Subtitle,
			).Scan(&item.ID)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if errCode := or.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
			return nil, models.ErrConflictData
		}
		return nil, err
	}

	return order, nil
}

// GetOrderBySessionID returns order by checkout session id
func (or *OrderRepository) GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	return or.getOrder(ctx, selectOrderBySessionIDQuery, sessionID)
}

// GetOrderByID returns order with its items
func (or *OrderRepository) GetOrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := or.getOrder(ctx, selectOrderByIDQuery, orderID)
	if err != nil {
		return nil, err
	}

	items, err := or.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// GetOrderByPaymentRef returns first order matching payment id, session id or order id
func (or *OrderRepository) GetOrderByPaymentRef(ctx context.Context, ref models.PaymentRef) (*models.Order, error) {
	if ref.Empty() {
		return nil, models.ErrDataNotFound
	}
	return or.getOrder(ctx, selectOrderByPaymentRefQuery, ref.PaymentID, ref.SessionID, ref.OrderID)
}

// GetOrderItems returns items of order
func (or *OrderRepository) GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	byOrder, err := or.getItems(ctx, []string{orderID})
	if err != nil {
		return nil, err
	}
	return byOrder[orderID], nil
}

// MarkOrderPaid moves PENDING order to PAID and attaches payment details.
// It reports false if the order was not PENDING anymore.
func (or *OrderRepository) MarkOrderPaid(ctx context.Context, orderID string, paid models.PaidDetails) (bool, error) {
	cmd, err := or.db.Exec(ctx, markOrderPaidQuery, orderID, paid.PaymentID, paid.CustomerEmail, paid.CustomerName)
	if err != nil {
		if errCode := or.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
			return false, models.ErrConflictData
		}
		return false, err
	}

	return cmd.RowsAffected() == 1, nil
}

// CancelPendingOrder moves PENDING order to CANCELLED.
// It reports false if the order was not PENDING anymore.
func (or *OrderRepository) CancelPendingOrder(ctx context.Context, orderID string) (bool, error) {
	cmd, err := or.db.Exec(ctx, cancelPendingOrderQuery, orderID)
	if err != nil {
		return false, err
	}

	return cmd.RowsAffected() == 1, nil
}

// FillCustomer sets customer details of an order that has no customer e-mail yet.
// It reports false if the order already had one.
func (or *OrderRepository) FillCustomer(ctx context.Context, orderID, email, name string) (bool, error) {
	cmd, err := or.db.Exec(ctx, fillCustomerQuery, orderID, email, name)
	if err != nil {
		return false, err
	}

	return cmd.RowsAffected() == 1, nil
}

// ClaimNotification marks notification as sent. It reports false if it was claimed
// before or the order has no recipient.
func (or *OrderRepository) ClaimNotification(ctx context.Context, orderID string, n models.Notification) (bool, error) {
	var query string
	switch n {
	case models.NotificationOrderConfirmation:
		query = claimOrderConfirmationQuery
	case models.NotificationPaymentConfirmation:
		query = claimPaymentConfirmationQuery
	default:
		return false, fmt.Errorf("unknown notification %q", n)
	}

	cmd, err := or.db.Exec(ctx, query, orderID)
	if err != nil {
		return false, err
	}

	return cmd.RowsAffected() == 1, nil
}

// UpdateOrderStatus sets order status. Orders never go back to PENDING,
// the reconciler would settle them again.
func (or *OrderRepository) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	if status == models.OrderStatusPending {
		return models.ErrStatusTransition
	}

	cmd, err := or.db.Exec(ctx, updateOrderStatusQuery, orderID, string(status))
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrDataNotFound
	}

	return nil
}

// GetStalePendingOrders returns PENDING orders created before given time
func (or *OrderRepository) GetStalePendingOrders(ctx context.Context, before time.Time, limit int) ([]models.Order, error) {
	rows, err := or.db.Query(ctx, selectStalePendingQuery, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOrders(rows)
}

// ListOrders returns page of orders matching filter and total number of matching orders
func (or *OrderRepository) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	where, args := buildOrderFilter(filter)

	var total int
	if err := or.db.QueryRow(ctx, "SELECT count(*) FROM orders"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM orders%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		orderColumns, where, len(args)+1, len(args)+2)
	rows, err := or.db.Query(ctx, query, append(args, filter.Limit, filter.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, 0, err
	}

	if len(orders) == 0 {
		return orders, total, nil
	}

	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}

	items, err := or.getItems(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, total, nil
}

// GetOrderStats returns order summary, recent orders are counted since given time
func (or *OrderRepository) GetOrderStats(ctx context.Context, since time.Time) (models.OrderStats, error) {
	stats := models.OrderStats{}
	err := or.db.QueryRow(ctx, selectOrderStatsQuery, since).Scan(
		&stats.TotalOrders,
		&stats.TotalRevenue,
		&stats.PendingOrders,
		&stats.CompletedOrders,
		&stats.RecentOrders,
	)
	if err != nil {
		return models.OrderStats{}, err
	}

	return stats, nil
}

func (or *OrderRepository) getOrder(ctx context.Context, query string, args ...any) (*models.Order, error) {
	order, err := scanOrder(or.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return order, nil
}

func (or *OrderRepository) getItems(ctx context.Context, orderIDs []string) (map[string][]models.OrderItem, error) {
	rows, err := or.db.Query(ctx, selectOrderItemsQuery, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[string][]models.OrderItem, len(orderIDs))

	for rows.Next() {
		item := models.OrderItem{}
		err = rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price, &item.Title, &item.Subtitle)
		if err != nil {
			return nil, err
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	order := models.Order{}
	var status string
	err := row.Scan(
		&order.ID,
		&order.SessionID,
		&order.PaymentID,
		&order.Total,
		&status,
		&order.CustomerEmail,
		&order.CustomerName,
		&order.UserID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.Status = models.OrderStatus(status)

	return &order, nil
}

func scanOrders(rows pgx.Rows) ([]models.Order, error) {
	orders := []models.Order{}

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

// buildOrderFilter returns WHERE clause and its arguments
func buildOrderFilter(filter models.OrderFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.CustomerEmail != "" {
		add("customer_email ILIKE '%%' || $%d || '%%'", filter.CustomerEmail)
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at <= $%d", *filter.To)
	}

	if len(conds) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}
