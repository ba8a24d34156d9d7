package model

import "time"

// CreditReport is the persisted unit: one bureau report extracted from an
// uploaded XML document. This is a pure domain model with no database-specific
// dependencies or tags; nullable source fields use pointers so that absent
// values serialize as JSON null rather than "".
type CreditReport struct {
	ID             string          `json:"id"`
	BasicDetails   BasicDetails    `json:"basicDetails"`
	ReportSummary  ReportSummary   `json:"reportSummary"`
	CreditAccounts []CreditAccount `json:"creditAccounts"`
	Addresses      []string        `json:"addresses"`
	FileName       string          `json:"fileName"`
	UploadedAt     time.Time       `json:"uploadedAt"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// BasicDetails holds applicant identity and score. Every field is optional;
// source documents vary in which identity blocks they carry.
type BasicDetails struct {
	Name        *string `json:"name"`
	MobilePhone *string `json:"mobilePhone"`
	PAN         *string `json:"pan"`
	CreditScore *int    `json:"creditScore"`
}

// ReportSummary holds aggregate figures. Each field is independently optional:
// explicit bureau-supplied values are kept as-is, and only the derivable ones
// are computed when the document omits them.
type ReportSummary struct {
	TotalAccounts           *int     `json:"totalAccounts"`
	ActiveAccounts          *int     `json:"activeAccounts"`
	ClosedAccounts          *int     `json:"closedAccounts"`
	CurrentBalanceAmount    *float64 `json:"currentBalanceAmount"`
	SecuredAccountsAmount   *float64 `json:"securedAccountsAmount"`
	UnsecuredAccountsAmount *float64 `json:"unsecuredAccountsAmount"`
	Last7DaysEnquiries      *int     `json:"last7DaysEnquiries"`
}

// CreditAccount is a single tradeline. Amounts are never nil: values that fail
// numeric coercion are stored as 0 so aggregates stay well-defined.
type CreditAccount struct {
	Type          *string `json:"type"`
	Bank          *string `json:"bank"`
	AccountNumber *string `json:"accountNumber"`
	Address       *string `json:"address"`
	Status        *string `json:"status"`
	CurrentBalance float64 `json:"currentBalance"`
	AmountOverdue  float64 `json:"amountOverdue"`
}

// ReportListItem is the summary projection returned by the list endpoint.
type ReportListItem struct {
	ID          string    `json:"id"`
	Name        *string   `json:"name"`
	CreditScore *int      `json:"creditScore"`
	FileName    string    `json:"fileName"`
	UploadedAt  time.Time `json:"uploadedAt"`
}
