package dto

// UploadStatementRequest is the body of POST /api/reconciliation.
// Format is accepted for forward compatibility; only "csv" is supported.
type UploadStatementRequest struct {
	OwnerID       string `json:"owner_id" binding:"required"`
	BankName      string `json:"bank_name" binding:"required"`
	AccountNumber string `json:"account_number"`
	CSVData       string `json:"csv_data" binding:"required"`
	Format        string `json:"format"`
}

// ReviewMatchRequest is the body of PUT /api/reconciliation.
type ReviewMatchRequest struct {
	MatchID    string `json:"match_id" binding:"required"`
	Status     string `json:"status" binding:"required"`
	Notes      string `json:"notes"`
	VerifiedBy string `json:"verified_by"`
}
