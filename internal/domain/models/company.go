package models

import (
	"encoding/json"
	"time"
)

// CompanyInfo is a flat key/value view of profile and metric data.
type CompanyInfo struct {
	Ticker string
	Fields map[string]interface{}
	Raw    json.RawMessage
}

// Recommendation is one month of analyst ratings.
type Recommendation struct {
	Period     time.Time
	StrongBuy  int
	Buy        int
	Hold       int
	Sell       int
	StrongSell int
}

// EarningsEvent is an upcoming or recent earnings release.
type EarningsEvent struct {
	Date            time.Time
	Hour            string
	Quarter         int
	Year            int
	EPSEstimate     *float64
	EPSActual       *float64
	RevenueEstimate *float64
	RevenueActual   *float64
}

// KeyValue keeps provider field order for tables.
type KeyValue struct {
	Key   string
	Value interface{}
}

// Statement is a financial statement laid out as rows of line items over
// report periods (newest first).
type Statement struct {
	Ticker  string
	Periods []time.Time
	Rows    []StatementRow
}

type StatementRow struct {
	Label  string
	Values []*float64
}

// StatementKind selects a section of a financial report.
type StatementKind string

const (
	IncomeStatement   StatementKind = "ic"
	CashFlowStatement StatementKind = "cf"
	BalanceSheet      StatementKind = "bs"
)

// SharesPoint is shares outstanding at a quarter end.
type SharesPoint struct {
	Date   time.Time
	Shares float64
}
