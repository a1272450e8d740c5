package dto

// ScanResponse is returned by the scan endpoint and by the scan lookups.
type ScanResponse struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Amount      *float64 `json:"amount"`
	Date        string   `json:"date"`
	Category    string   `json:"category"`
	RawText     string   `json:"rawText"`
	FileName    string   `json:"fileName,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
}

type ScanListResponse struct {
	Scans  []ScanResponse `json:"scans"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type ExtractRequest struct {
	Text string `json:"text"`
}

type ExtractResponse struct {
	Description string   `json:"description"`
	Amount      *float64 `json:"amount"`
	Date        string   `json:"date"`
	Category    string   `json:"category"`
}

// ConfirmScanRequest turns a scan into a transaction. Empty fields keep the
// extracted values.
type ConfirmScanRequest struct {
	Description string   `json:"description"`
	Amount      *float64 `json:"amount"`
	Date        string   `json:"date"`
	Category    string   `json:"category"`
	Wallet      string   `json:"wallet"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}
