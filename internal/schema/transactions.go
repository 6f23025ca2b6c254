package schema

// Column names that appear in messages as well as in the header row.
const (
	ColumnTransactionAmount = "Сумма операции"
	ColumnCashbackAmount    = "Сумма cash-back"
)

// transactionFieldSpecs defines the expected CSV columns for payment
// transaction exports. Order is significant.
var transactionFieldSpecs = [...]FieldSpec{
	{Name: "Участники гражданского оборота", Type: FieldText},
	{Name: "Тип операции", Type: FieldText},
	{Name: ColumnTransactionAmount, Type: FieldNumeric},
	{Name: "Вид расчета", Type: FieldText},
	{Name: "Место оплаты", Type: FieldText},
	{Name: "Терминал оплаты", Type: FieldText},
	{Name: "Дата оплаты", Type: FieldText},
	{Name: "Время оплаты", Type: FieldText},
	{Name: "Результат операции", Type: FieldText},
	{Name: "Cash-back", Type: FieldText},
	{Name: ColumnCashbackAmount, Type: FieldNumeric},
}

// TransactionFieldSpecs returns a copy of the transaction schema.
func TransactionFieldSpecs() []FieldSpec {
	out := make([]FieldSpec, len(transactionFieldSpecs))
	copy(out, transactionFieldSpecs[:])
	return out
}

// Headers returns the expected header names in order.
func Headers(specs []FieldSpec) []string {
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.Name
	}
	return names
}

// NumericColumns returns the columns of specs that hold decimal values,
// in column order.
func NumericColumns(specs []FieldSpec) []NumericColumn {
	var cols []NumericColumn
	for i, spec := range specs {
		if spec.Type == FieldNumeric {
			cols = append(cols, NumericColumn{Index: i, Name: spec.Name})
		}
	}
	return cols
}
