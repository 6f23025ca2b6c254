package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/JonMunkholm/csvgate/internal/schema"
)

// writeCSV writes records to a temp file and returns its path.
func writeCSV(t *testing.T, records [][]string) string {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return writeRaw(t, buf.Bytes())
}

// writeRaw writes data to a temp file and returns its path.
func writeRaw(t *testing.T, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "transactions.csv")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func validRecords() [][]string {
	return [][]string{
		expectedHeader(),
		sampleRow("12.50", "0.13"),
		sampleRow("12,50", "0,13"),
		sampleRow("-3", "0"),
	}
}

func mustProcess(t *testing.T, p *Processor, path string) Outcome {
	t.Helper()

	out, err := p.ProcessData(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessData() fatal error = %v", err)
	}
	return out
}

func TestProcessData_Failures(t *testing.T) {
	renamed := expectedHeader()
	renamed[4] = "Место"

	bom := []byte{0xEF, 0xBB, 0xBF}
	header := strings.Join(expectedHeader(), ",") + "\n"

	tests := []struct {
		name       string
		path       func(t *testing.T) string
		wantKind   Kind
		wantDetail string
	}{
		{
			name:     "missing file",
			path:     func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.csv") },
			wantKind: KindNotFound,
		},
		{
			name:     "directory",
			path:     func(t *testing.T) string { return t.TempDir() },
			wantKind: KindInvalidFormat,
		},
		{
			name:       "zero bytes",
			path:       func(t *testing.T) string { return writeRaw(t, nil) },
			wantKind:   KindEmptyFile,
			wantDetail: "Файл пуст",
		},
		{
			name:       "only a BOM",
			path:       func(t *testing.T) string { return writeRaw(t, bom) },
			wantKind:   KindEmptyFile,
			wantDetail: "Файл пуст",
		},
		{
			name:       "only headers",
			path:       func(t *testing.T) string { return writeCSV(t, [][]string{expectedHeader()}) },
			wantKind:   KindEmptyFile,
			wantDetail: "Файл содержит только заголовки",
		},
		{
			name:       "headers followed by blank lines",
			path:       func(t *testing.T) string { return writeRaw(t, []byte(header+"\n\n")) },
			wantKind:   KindEmptyFile,
			wantDetail: "Файл содержит только заголовки",
		},
		{
			name:       "invalid utf-8",
			path:       func(t *testing.T) string { return writeRaw(t, append([]byte(header), 0xFF, 0xFE, '\n')) },
			wantKind:   KindInvalidFormat,
			wantDetail: "Некорректная кодировка файла",
		},
		{
			name:       "windows-1251 text",
			path:       func(t *testing.T) string { return writeRaw(t, []byte{0xD1, 0xF3, 0xEC, 0xEC, 0xE0, '\n', '1', '\n'}) },
			wantKind:   KindInvalidFormat,
			wantDetail: "Некорректная кодировка файла",
		},
		{
			name: "blank first line",
			path: func(t *testing.T) string {
				return writeRaw(t, []byte("\n"+header+strings.Join(sampleRow("1", "1"), ",")+"\n"))
			},
			wantKind:   KindEmptyFile,
			wantDetail: "Файл пуст",
		},
		{
			name:       "blank first line after BOM",
			path:       func(t *testing.T) string { return writeRaw(t, append(append(bom, "\r\n"...), header...)) },
			wantKind:   KindEmptyFile,
			wantDetail: "Файл пуст",
		},
		{
			name:       "unterminated quote",
			path:       func(t *testing.T) string { return writeRaw(t, []byte(header+`a,b,"12.5,c`+"\n")) },
			wantKind:   KindInvalidFormat,
			wantDetail: "Ошибка чтения CSV файла",
		},
		{
			name: "quoted field open at end of file",
			path: func(t *testing.T) string {
				return writeRaw(t, []byte(header+`"ООО ""Ромашка"", филиал,Покупка,1,a,b,c,d,e,f,g,1`+"\n"))
			},
			wantKind:   KindInvalidFormat,
			wantDetail: "Ошибка чтения CSV файла",
		},
		{
			name: "ten columns",
			path: func(t *testing.T) string {
				return writeCSV(t, [][]string{expectedHeader()[:10], sampleRow("1", "1")[:10]})
			},
			wantKind:   KindStructureMismatch,
			wantDetail: "Несоответствие количества столбцов. Ожидалось: 11, получено: 10",
		},
		{
			name: "twelve columns",
			path: func(t *testing.T) string {
				return writeCSV(t, [][]string{append(expectedHeader(), "Лишний"), append(sampleRow("1", "1"), "x")})
			},
			wantKind:   KindStructureMismatch,
			wantDetail: "Несоответствие количества столбцов. Ожидалось: 11, получено: 12",
		},
		{
			name:       "renamed column",
			path:       func(t *testing.T) string { return writeCSV(t, [][]string{renamed, sampleRow("1", "1")}) },
			wantKind:   KindStructureMismatch,
			wantDetail: "Несоответствие структуры. Ожидался столбец: 'Место оплаты', получен: 'Место'",
		},
		{
			name:       "non-numeric amount",
			path:       func(t *testing.T) string { return writeCSV(t, [][]string{expectedHeader(), sampleRow("abc", "1")}) },
			wantKind:   KindDataValidation,
			wantDetail: "Некорректный тип данных в строке 2, столбец 'Сумма операции'",
		},
		{
			name: "non-numeric cashback",
			path: func(t *testing.T) string {
				return writeCSV(t, [][]string{expectedHeader(), sampleRow("1", "1"), sampleRow("2", "n/a")})
			},
			wantKind:   KindDataValidation,
			wantDetail: "Некорректный тип данных в строке 3, столбец 'Сумма cash-back'",
		},
	}

	p := NewProcessor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path(t)
			out := mustProcess(t, p, path)

			if out.OK {
				t.Fatal("OK = true, want false")
			}
			if out.Err == nil {
				t.Fatal("Err = nil, want a ProcessingError")
			}
			if out.Err.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", out.Err.Kind, tt.wantKind)
			}
			if tt.wantDetail != "" && out.Err.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", out.Err.Detail, tt.wantDetail)
			}
			if !strings.HasPrefix(out.Message(), MsgFailurePrefix) {
				t.Errorf("Message() = %q, want prefix %q", out.Message(), MsgFailurePrefix)
			}
		})
	}
}

func TestProcessData_NotFoundMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")
	out := mustProcess(t, NewProcessor(), path)

	want := "Ошибка обработки данных: Файл " + path + " не найден"
	if out.Message() != want {
		t.Errorf("Message() = %q, want %q", out.Message(), want)
	}
	if !errors.Is(out.Err, ErrNotFound) {
		t.Errorf("errors.Is(Err, ErrNotFound) = false for %v", out.Err)
	}
}

func TestProcessData_DirectoryMessage(t *testing.T) {
	dir := t.TempDir()
	out := mustProcess(t, NewProcessor(), dir)

	if want := dir + " не является файлом"; out.Err == nil || out.Err.Detail != want {
		t.Errorf("Err = %v, want %q", out.Err, want)
	}
}

func TestProcessData_Valid(t *testing.T) {
	path := writeCSV(t, validRecords())
	out := mustProcess(t, NewProcessor(), path)

	if !out.OK {
		t.Fatalf("OK = false: %s", out.Message())
	}
	if out.Message() != MsgSuccess {
		t.Errorf("Message() = %q, want %q", out.Message(), MsgSuccess)
	}
	if out.Kind() != "" {
		t.Errorf("Kind() = %q, want empty", out.Kind())
	}
	if out.Rows != 3 {
		t.Errorf("Rows = %d, want 3", out.Rows)
	}
	if out.Mode != ModeStrict {
		t.Errorf("Mode = %q, want %q", out.Mode, ModeStrict)
	}
	if out.RunID == "" {
		t.Error("RunID should be set")
	}
}

func TestProcessData_ValidWithBOMAndCRLF(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})
	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	if err := w.WriteAll(validRecords()); err != nil {
		t.Fatal(err)
	}

	out := mustProcess(t, NewProcessor(), writeRaw(t, buf.Bytes()))
	if !out.OK {
		t.Fatalf("OK = false: %s", out.Message())
	}
	if out.Bytes != int64(buf.Len()) {
		t.Errorf("Bytes = %d, want %d", out.Bytes, buf.Len())
	}
}

func TestProcessData_QuotedFieldsWithDelimitersAndNewlines(t *testing.T) {
	row := sampleRow("1 000,00", "5")
	row[0] = "ООО \"Ромашка\", филиал\nСевер"
	row[2] = "1000,00"

	out := mustProcess(t, NewProcessor(), writeCSV(t, [][]string{expectedHeader(), row}))
	if !out.OK {
		t.Fatalf("OK = false: %s", out.Message())
	}
	if out.Rows != 1 {
		t.Errorf("Rows = %d, want 1", out.Rows)
	}
}

func TestProcessData_BareQuotesInUnquotedField(t *testing.T) {
	header := strings.Join(expectedHeader(), ",")
	data := header + "\n" +
		`ООО "Ромашка",Покупка,12.50,Безналичный,Москва,T-0042,01.02.2024,12:30,Успешно,Да,0.13` + "\n" +
		`"ИП ""Иванов""",Покупка,7,Наличный,Тверь,T-7,02.02.2024,09:00,Успешно,Нет,0` + "\n"

	out := mustProcess(t, NewProcessor(), writeRaw(t, []byte(data)))
	if !out.OK {
		t.Fatalf("OK = false: %s", out.Message())
	}
	if out.Rows != 2 {
		t.Errorf("Rows = %d, want 2", out.Rows)
	}
}

func TestProcessData_CarriageReturnLineEndings(t *testing.T) {
	var lines []string
	for _, rec := range validRecords() {
		lines = append(lines, strings.Join(rec, ","))
	}
	// Unquoted comma decimals would split into extra columns.
	lines[2] = strings.Join(sampleRow("12.50", "0.13"), ",")
	data := strings.Join(lines, "\r") + "\r"

	out := mustProcess(t, NewProcessor(), writeRaw(t, []byte(data)))
	if !out.OK {
		t.Fatalf("OK = false: %s", out.Message())
	}
	if out.Rows != 3 {
		t.Errorf("Rows = %d, want 3", out.Rows)
	}
}

func TestProcessData_StructuralModeSkipsFields(t *testing.T) {
	path := writeCSV(t, [][]string{expectedHeader(), sampleRow("abc", "xyz")})

	strict := mustProcess(t, NewProcessor(WithMode(ModeStrict)), path)
	if strict.OK {
		t.Error("strict mode accepted a non-numeric amount")
	}

	structural := mustProcess(t, NewProcessor(WithMode(ModeStructural)), path)
	if !structural.OK {
		t.Errorf("structural mode rejected file: %s", structural.Message())
	}
	if structural.Mode != ModeStructural {
		t.Errorf("Mode = %q, want %q", structural.Mode, ModeStructural)
	}
}

func TestProcessData_StructuralModeStillChecksHeaders(t *testing.T) {
	path := writeCSV(t, [][]string{expectedHeader()[:5], {"a", "b", "c", "d", "e"}})

	out := mustProcess(t, NewProcessor(WithMode(ModeStructural)), path)
	if out.OK || out.Err.Kind != KindStructureMismatch {
		t.Errorf("outcome = %+v, want StructureMismatch", out)
	}
}

func TestProcessData_MaxBytes(t *testing.T) {
	path := writeCSV(t, validRecords())
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	out := mustProcess(t, NewProcessor(WithMaxBytes(info.Size()-1)), path)
	if out.OK || !errors.Is(out.Err, ErrFileTooLarge) {
		t.Errorf("outcome = %+v, want ErrFileTooLarge", out.Err)
	}

	out = mustProcess(t, NewProcessor(WithMaxBytes(info.Size())), path)
	if !out.OK {
		t.Errorf("file at exactly the limit rejected: %s", out.Message())
	}
}

func TestProcessData_Idempotent(t *testing.T) {
	paths := []string{
		writeCSV(t, validRecords()),
		writeCSV(t, [][]string{expectedHeader(), sampleRow("1", "bad")}),
	}

	p := NewProcessor()
	for _, path := range paths {
		first := mustProcess(t, p, path)
		second := mustProcess(t, p, path)

		if first.OK != second.OK || first.Message() != second.Message() {
			t.Errorf("results differ for %s: %q vs %q", path, first.Message(), second.Message())
		}
	}
}

func TestProcessData_RoundTrip(t *testing.T) {
	src := writeCSV(t, validRecords())
	if out := mustProcess(t, NewProcessor(), src); !out.OK {
		t.Fatalf("source rejected: %s", out.Message())
	}

	f, err := os.Open(src)
	if err != nil {
		t.Fatal(err)
	}
	pf, err := parseReader(f, 0)
	f.Close()
	if err != nil {
		t.Fatalf("parseReader() error = %v", err)
	}

	records := append([][]string{pf.Header}, pf.Rows...)
	out := mustProcess(t, NewProcessor(), writeCSV(t, records))
	if !out.OK {
		t.Errorf("reserialized file rejected: %s", out.Message())
	}
}

func TestProcessData_ConcurrentFiles(t *testing.T) {
	good := writeCSV(t, validRecords())
	bad := writeCSV(t, [][]string{expectedHeader(), sampleRow("abc", "1")})

	p := NewProcessor()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path, wantOK := good, true
			if i%2 == 1 {
				path, wantOK = bad, false
			}
			out, err := p.ProcessData(context.Background(), path)
			if err != nil {
				t.Errorf("ProcessData() error = %v", err)
				return
			}
			if out.OK != wantOK {
				t.Errorf("OK = %v for %s, want %v", out.OK, path, wantOK)
			}
		}(i)
	}
	wg.Wait()
}

func TestProcessData_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProcessor().ProcessData(ctx, writeCSV(t, validRecords()))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestProcessData_PackageDefault(t *testing.T) {
	out, err := ProcessData(context.Background(), writeCSV(t, validRecords()))
	if err != nil {
		t.Fatalf("ProcessData() error = %v", err)
	}
	if !out.OK {
		t.Errorf("OK = false: %s", out.Message())
	}
}

func TestValidateReader(t *testing.T) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.WriteAll([][]string{expectedHeader(), sampleRow("7,5", "0,1")})

	out, err := NewProcessor().ValidateReader(context.Background(), "upload.csv", &buf)
	if err != nil {
		t.Fatalf("ValidateReader() error = %v", err)
	}
	if !out.OK {
		t.Errorf("OK = false: %s", out.Message())
	}
	if out.Source != "upload.csv" {
		t.Errorf("Source = %q, want %q", out.Source, "upload.csv")
	}

	out, err = NewProcessor().ValidateReader(context.Background(), "empty.csv", strings.NewReader(""))
	if err != nil {
		t.Fatalf("ValidateReader() error = %v", err)
	}
	if out.OK || !errors.Is(out.Err, ErrEmptyFile) {
		t.Errorf("outcome = %+v, want EmptyFile", out.Err)
	}
}

func TestWithSpecs(t *testing.T) {
	specs := []schema.FieldSpec{
		{Name: "id", Type: schema.FieldText},
		{Name: "amount", Type: schema.FieldNumeric},
	}
	p := NewProcessor(WithSpecs(specs))
	specs[0].Name = "mutated"

	path := writeCSV(t, [][]string{{"id", "amount"}, {"1", "2,5"}})
	if out := mustProcess(t, p, path); !out.OK {
		t.Errorf("custom schema rejected file: %s", out.Message())
	}
	if got := p.Specs()[0].Name; got != "id" {
		t.Errorf("Specs()[0].Name = %q, want %q", got, "id")
	}
}

type recorderFunc struct {
	mu       sync.Mutex
	started  int
	finished []Outcome
}

func (r *recorderFunc) ValidationStarted(Mode) {
	r.mu.Lock()
	r.started++
	r.mu.Unlock()
}

func (r *recorderFunc) ValidationFinished(o Outcome) {
	r.mu.Lock()
	r.finished = append(r.finished, o)
	r.mu.Unlock()
}

func TestProcessor_Recorder(t *testing.T) {
	rec := &recorderFunc{}
	p := NewProcessor(WithRecorder(rec))

	mustProcess(t, p, writeCSV(t, validRecords()))
	mustProcess(t, p, filepath.Join(t.TempDir(), "missing.csv"))

	if rec.started != 2 {
		t.Errorf("started = %d, want 2", rec.started)
	}
	if len(rec.finished) != 2 {
		t.Fatalf("finished = %d, want 2", len(rec.finished))
	}
	if !rec.finished[0].OK || rec.finished[1].OK {
		t.Errorf("finished outcomes = %v/%v, want true/false", rec.finished[0].OK, rec.finished[1].OK)
	}
	if rec.finished[1].Kind() != "NotFoundError" {
		t.Errorf("Kind() = %q, want NotFoundError", rec.finished[1].Kind())
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"", ModeStrict, false},
		{"strict", ModeStrict, false},
		{" Structural ", ModeStructural, false},
		{"lenient", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
