package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldOperation     = "operation"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldDuration      = "duration_ms"
	FieldBudgetID      = "budget_id"
	FieldSpreadsheetID = "spreadsheet_id"
	FieldSheetTitle    = "sheet_title"
	FieldSheetID       = "sheet_id"
	FieldDirection     = "direction"
	FieldStrategy      = "strategy"
	FieldChangeCount   = "change_count"
	FieldRowCount      = "row_count"
	FieldAttempt       = "attempt"
	FieldMessageID     = "message_id"
)

// Components
const (
	ComponentApp     = "app"
	ComponentSync    = "sync"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentDrive   = "drive"
	ComponentCache   = "cache"
	ComponentBackend = "backend"
	ComponentHTTP    = "http"
)

// Operations
const (
	OpPush     = "push"
	OpPull     = "pull"
	OpApply    = "apply"
	OpImport   = "import"
	OpExport   = "export"
	OpResolve  = "resolve"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// Error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields builds a set of structured log attributes.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithBudget(id string) LogFields {
	f[FieldBudgetID] = id
	return f
}

// WithSheet adds the spreadsheet coordinates of a sync.
func (f LogFields) WithSheet(spreadsheetID, title string) LogFields {
	f[FieldSpreadsheetID] = spreadsheetID
	f[FieldSheetTitle] = title
	return f
}

// ToSlice converts the fields into slog key/value arguments.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
