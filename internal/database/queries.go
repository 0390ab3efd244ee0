package database

// Menu and branch reference reads. These run inside the order-creation
// transaction so a price change cannot slip in between resolution and commit.
const (
	GetBranchSQL = `
		SELECT code FROM branches WHERE id = $1`

	GetTableSQL = `
		SELECT branch_id FROM tables WHERE id = $1`

	GetMenuItemSQL = `
		SELECT branch_id, price FROM menu_items WHERE id = $1`

	GetVariantSQL = `
		SELECT menu_item_id, name, price_adjustment FROM item_variants WHERE id = $1`

	GetModifierSQL = `
		SELECT menu_item_id, name, extra_price FROM item_modifiers WHERE id = $1`
)

// Order writes.
const (
	InsertOrderSQL = `
		INSERT INTO orders (code, branch_id, table_id, customer_name, total, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	InsertOrderLineSQL = `
		INSERT INTO order_lines (order_id, menu_item_id, variant_id, variant_name, quantity, unit_price, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	InsertOrderLineModifierSQL = `
		INSERT INTO order_line_modifiers (order_line_id, modifier_id, name, extra_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	InsertPaymentSQL = `
		INSERT INTO payments (order_id, payment_type, amount, transaction_ref)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	InsertSyncLogSQL = `
		INSERT INTO sync_logs (table_name, record_id, operation, payload)
		VALUES ($1, $2, $3, $4)`

	// Compare-and-swap updates: the WHERE clause re-checks the status the
	// transition was validated against, so concurrent operators cannot
	// overwrite each other blindly.
	UpdateOrderStatusCASSQL = `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`

	UpdateOrderPaymentCASSQL = `
		UPDATE orders SET status = $1, payment_status = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4`
)

// Order reads.
const (
	orderColumns = `
		id, code, branch_id, table_id, customer_name, total, status, payment_status, created_at, updated_at`

	GetOrderByIDSQL = `
		SELECT ` + orderColumns + `
		FROM orders WHERE id = $1`

	GetOrderByCodeSQL = `
		SELECT ` + orderColumns + `
		FROM orders WHERE code = $1`

	ListOrdersBaseSQL = `
		SELECT ` + orderColumns + `
		FROM orders`

	GetOrderLinesSQL = `
		SELECT id, order_id, menu_item_id, variant_id, variant_name, quantity, unit_price, note
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id ASC`

	GetOrderLineModifiersSQL = `
		SELECT m.id, m.order_line_id, m.modifier_id, m.name, m.extra_price
		FROM order_line_modifiers m
		JOIN order_lines l ON l.id = m.order_line_id
		WHERE l.order_id = $1
		ORDER BY m.id ASC`
)
