package db

import "database/sql"

type Product struct {
	ID             int64
	ProductName    string
	Url            string
	MetalType      string
	ProductType    string
	WeightG        sql.NullFloat64
	PurityPerMille sql.NullFloat64
	FineMetalG     sql.NullFloat64
	CreatedAt      int64
}

type PriceHistory struct {
	ID           int64
	ProductID    int64
	SellPriceEur float64
	BuyPriceEur  float64
	Timestamp    int64
}
