package db

import (
	"context"
	"database/sql"
)

const upsertProduct = `
insert into products (
    product_name, url, metal_type, product_type,
    weight_g, purity_per_mille, fine_metal_g, created_at
)
values (?, ?, ?, ?, ?, ?, ?, ?)
on conflict(product_name, metal_type) do update set
    url = excluded.url,
    product_type = excluded.product_type,
    weight_g = excluded.weight_g,
    purity_per_mille = excluded.purity_per_mille,
    fine_metal_g = excluded.fine_metal_g
returning id
`

type UpsertProductParams struct {
	ProductName    string
	Url            string
	MetalType      string
	ProductType    string
	WeightG        sql.NullFloat64
	PurityPerMille sql.NullFloat64
	FineMetalG     sql.NullFloat64
	CreatedAt      int64
}

func (q *Queries) UpsertProduct(ctx context.Context, arg UpsertProductParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, upsertProduct,
		arg.ProductName,
		arg.Url,
		arg.MetalType,
		arg.ProductType,
		arg.WeightG,
		arg.PurityPerMille,
		arg.FineMetalG,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const productExistsByUrl = `
select count(*) from products where url = ? and metal_type = ?
`

type ProductExistsByUrlParams struct {
	Url       string
	MetalType string
}

func (q *Queries) ProductExistsByUrl(ctx context.Context, arg ProductExistsByUrlParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, productExistsByUrl, arg.Url, arg.MetalType)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getProductByUrl = `
select id, product_name, url, metal_type, product_type,
       weight_g, purity_per_mille, fine_metal_g, created_at
from products
where url = ? and metal_type = ?
limit 1
`

type GetProductByUrlParams struct {
	Url       string
	MetalType string
}

func (q *Queries) GetProductByUrl(ctx context.Context, arg GetProductByUrlParams) (Product, error) {
	row := q.db.QueryRowContext(ctx, getProductByUrl, arg.Url, arg.MetalType)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.ProductName,
		&i.Url,
		&i.MetalType,
		&i.ProductType,
		&i.WeightG,
		&i.PurityPerMille,
		&i.FineMetalG,
		&i.CreatedAt,
	)
	return i, err
}

const listProducts = `
select id, product_name, url, metal_type, product_type,
       weight_g, purity_per_mille, fine_metal_g, created_at
from products
where metal_type = ?
order by product_name
`

func (q *Queries) ListProducts(ctx context.Context, metalType string) ([]Product, error) {
	rows, err := q.db.QueryContext(ctx, listProducts, metalType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Product
	for rows.Next() {
		var i Product
		if err := rows.Scan(
			&i.ID,
			&i.ProductName,
			&i.Url,
			&i.MetalType,
			&i.ProductType,
			&i.WeightG,
			&i.PurityPerMille,
			&i.FineMetalG,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertPrice = `
insert into price_history (product_id, sell_price_eur, buy_price_eur, timestamp)
values (?, ?, ?, ?)
on conflict(product_id, timestamp) do update set
    sell_price_eur = excluded.sell_price_eur,
    buy_price_eur = excluded.buy_price_eur
`

type InsertPriceParams struct {
	ProductID    int64
	SellPriceEur float64
	BuyPriceEur  float64
	Timestamp    int64
}

func (q *Queries) InsertPrice(ctx context.Context, arg InsertPriceParams) error {
	_, err := q.db.ExecContext(ctx, insertPrice,
		arg.ProductID,
		arg.SellPriceEur,
		arg.BuyPriceEur,
		arg.Timestamp,
	)
	return err
}

const getLatestPrices = `
select p.id, p.product_name, p.url, p.product_type,
       p.weight_g, p.purity_per_mille, p.fine_metal_g,
       h.sell_price_eur, h.buy_price_eur, h.timestamp
from products p
join price_history h on h.product_id = p.id
where p.metal_type = ?
  and h.timestamp = (
      select max(timestamp) from price_history where product_id = p.id
  )
`

type GetLatestPricesRow struct {
	ID             int64
	ProductName    string
	Url            string
	ProductType    string
	WeightG        sql.NullFloat64
	PurityPerMille sql.NullFloat64
	FineMetalG     sql.NullFloat64
	SellPriceEur   float64
	BuyPriceEur    float64
	Timestamp      int64
}

func (q *Queries) GetLatestPrices(ctx context.Context, metalType string) ([]GetLatestPricesRow, error) {
	rows, err := q.db.QueryContext(ctx, getLatestPrices, metalType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetLatestPricesRow
	for rows.Next() {
		var i GetLatestPricesRow
		if err := rows.Scan(
			&i.ID,
			&i.ProductName,
			&i.Url,
			&i.ProductType,
			&i.WeightG,
			&i.PurityPerMille,
			&i.FineMetalG,
			&i.SellPriceEur,
			&i.BuyPriceEur,
			&i.Timestamp,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getPriceHistory = `
select id, product_id, sell_price_eur, buy_price_eur, timestamp
from price_history
where product_id = ? and timestamp >= ?
order by timestamp desc
`

type GetPriceHistoryParams struct {
	ProductID int64
	After     int64
}

func (q *Queries) GetPriceHistory(ctx context.Context, arg GetPriceHistoryParams) ([]PriceHistory, error) {
	rows, err := q.db.QueryContext(ctx, getPriceHistory, arg.ProductID, arg.After)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PriceHistory
	for rows.Next() {
		var i PriceHistory
		if err := rows.Scan(
			&i.ID,
			&i.ProductID,
			&i.SellPriceEur,
			&i.BuyPriceEur,
			&i.Timestamp,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getPriceEndpoints = `
select p.id, p.product_name, p.product_type, p.fine_metal_g,
       fh.sell_price_eur, fh.timestamp,
       lh.sell_price_eur, lh.timestamp
from products p
join price_history fh on fh.product_id = p.id
    and fh.timestamp = (
        select min(timestamp) from price_history
        where product_id = p.id and timestamp >= ?1
    )
join price_history lh on lh.product_id = p.id
    and lh.timestamp = (
        select max(timestamp) from price_history
        where product_id = p.id and timestamp >= ?1
    )
where p.metal_type = ?2
`

type GetPriceEndpointsParams struct {
	After     int64
	MetalType string
}

type GetPriceEndpointsRow struct {
	ID             int64
	ProductName    string
	ProductType    string
	FineMetalG     sql.NullFloat64
	FirstSellEur   float64
	FirstTimestamp int64
	LastSellEur    float64
	LastTimestamp  int64
}

func (q *Queries) GetPriceEndpoints(ctx context.Context, arg GetPriceEndpointsParams) ([]GetPriceEndpointsRow, error) {
	rows, err := q.db.QueryContext(ctx, getPriceEndpoints, arg.After, arg.MetalType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetPriceEndpointsRow
	for rows.Next() {
		var i GetPriceEndpointsRow
		if err := rows.Scan(
			&i.ID,
			&i.ProductName,
			&i.ProductType,
			&i.FineMetalG,
			&i.FirstSellEur,
			&i.FirstTimestamp,
			&i.LastSellEur,
			&i.LastTimestamp,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countProductsByType = `
select product_type, count(*) from products
where metal_type = ?
group by product_type
`

type CountProductsByTypeRow struct {
	ProductType string
	Count       int64
}

func (q *Queries) CountProductsByType(ctx context.Context, metalType string) ([]CountProductsByTypeRow, error) {
	rows, err := q.db.QueryContext(ctx, countProductsByType, metalType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CountProductsByTypeRow
	for rows.Next() {
		var i CountProductsByTypeRow
		if err := rows.Scan(&i.ProductType, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
