package layout

// Fixed grid columns, 0-based.
const (
	ColLabel   = 0
	ColJan     = 1
	ColDec     = 12
	ColAnnual  = 13
	ColAverage = 14
	ColNotes   = 15
	ColMeta    = 16

	// ColumnCount is the width of every written row.
	ColumnCount = 17
)

// Labels written by the generator and recognised on read-back.
const (
	AutoRowPrefix       = "→ "
	DefaultTotalLabel   = "Total"
	ExpenseGrandTotal   = "Total expenses"
	SavingsGrandTotal   = "Total savings"
	RemainingLabel      = "Remaining"
	RunningBalanceLabel = "Running balance"
	AnnualHeader        = "Total"
	AverageHeader       = "Avg"
	NotesHeader         = "Notes"
)

var MonthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ColumnLetter converts a 0-based column index into its A1 letter(s).
func ColumnLetter(col int) string {
	s := ""
	for col >= 0 {
		s = string(rune('A'+col%26)) + s
		col = col/26 - 1
	}
	return s
}

// MonthColumn returns the letter of the column holding month m (0-based).
func MonthColumn(m int) string {
	return ColumnLetter(ColJan + m)
}
