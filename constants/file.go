package constants

// DateLayout is the wire format for due dates (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// DefaultCurrency is used when a profile has not chosen one.
const DefaultCurrency = "ZAR"

// Export file settings.
const (
	XLSXContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	DefaultExportName  = "bills.xlsx"
	BillsSheetName     = "Bills"
	CategorySheetName  = "By Category"
	SheetsDefaultRange = "Bills!A1"
)
