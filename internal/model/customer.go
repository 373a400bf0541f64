package model

import "github.com/shopspring/decimal"

// CustomerRecord is one row of the segmented customer table. Cluster and
// Segment are assigned by an upstream model; this program only consumes them.
type CustomerRecord struct {
	CustomerID string
	Recency    int // days since last transaction
	Frequency  int // transaction count
	Monetary   decimal.Decimal
	Cluster    int
	Segment    string
}
