package vcf

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

const annotatedHeader = `##fileformat=VCFv4.2
##INFO=<ID=DP,Number=1,Type=Integer,Description="Approximate read depth">
##INFO=<ID=CSQ,Number=.,Type=String,Description="Consequence annotations from Ensembl VEP. Format: Allele|Consequence|IMPACT|SYMBOL|Gene|Feature_type|Feature|HGVSc|HGVSp|VARIANT_CLASS">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
`

func TestParser_AnnotatedFile(t *testing.T) {
	testFile := findTestFile(t, "tcga_brca_annotated.vcf")

	parser, err := NewParser(testFile)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	defer parser.Close()

	r, err := parser.Next()
	if err != nil {
		t.Fatalf("Failed to read record: %v", err)
	}
	if r == nil {
		t.Fatal("Expected a record, got nil")
	}

	if r.Chrom != "chr12" {
		t.Errorf("Expected chrom chr12, got %s", r.Chrom)
	}
	if r.Pos != 25245350 {
		t.Errorf("Expected pos 25245350, got %d", r.Pos)
	}
	if r.Ref != "C" {
		t.Errorf("Expected ref C, got %s", r.Ref)
	}
	if len(r.Alt) != 1 || r.Alt[0] != "A" {
		t.Errorf("Expected alt [A], got %v", r.Alt)
	}
	if r.HasQual {
		t.Error("Expected missing quality score")
	}
	if r.Filter != "PASS" {
		t.Errorf("Expected filter PASS, got %s", r.Filter)
	}
	if r.Info["DP"] != "112" {
		t.Errorf("Expected DP=112, got %q", r.Info["DP"])
	}
	if _, ok := r.Info["SOMATIC"]; !ok {
		t.Error("Expected SOMATIC flag to be present")
	}

	if len(r.Annotations) != 2 {
		t.Fatalf("Expected 2 annotations, got %d", len(r.Annotations))
	}
	first := r.Annotations[0]
	if first.TranscriptID != "ENST00000256078.10" {
		t.Errorf("Expected transcript ENST00000256078.10, got %s", first.TranscriptID)
	}
	if first.Symbol != "KRAS" {
		t.Errorf("Expected symbol KRAS, got %s", first.Symbol)
	}
	if first.Consequence != "missense_variant" {
		t.Errorf("Expected consequence missense_variant, got %s", first.Consequence)
	}
	if first.VariantClass != "SNV" {
		t.Errorf("Expected variant class SNV, got %s", first.VariantClass)
	}
	if first.HGVSp != "p.Gly12Val" {
		t.Errorf("Expected HGVSp p.Gly12Val, got %s", first.HGVSp)
	}
	if first.Values["HGVSc"] != "c.35G>T" {
		t.Errorf("Expected HGVSc c.35G>T, got %q", first.Values["HGVSc"])
	}

	count := 1
	for {
		r, err := parser.Next()
		if err != nil {
			t.Fatalf("Error reading record: %v", err)
		}
		if r == nil {
			break
		}
		count++
	}
	if count != 6 {
		t.Errorf("Expected 6 records, got %d", count)
	}
}

func TestParser_Schema(t *testing.T) {
	testFile := findTestFile(t, "tcga_brca_annotated.vcf")

	parser, err := NewParser(testFile)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	defer parser.Close()

	schema := parser.Schema()
	if schema.NumColumns() != 11 {
		t.Fatalf("Expected 11 columns, got %d", schema.NumColumns())
	}
	if schema.Columns()[0] != "CHROM" {
		t.Errorf("Expected first column CHROM, got %s", schema.Columns()[0])
	}
	if _, ok := schema.Index("TUMOR"); !ok {
		t.Error("Expected TUMOR column in schema")
	}

	keys := schema.AnnotationKeys()
	if len(keys) != 10 {
		t.Fatalf("Expected 10 annotation keys, got %d", len(keys))
	}
	if keys[6] != "Feature" {
		t.Errorf("Expected annotation key 7 to be Feature, got %s", keys[6])
	}
}

func TestParser_Metadata(t *testing.T) {
	testFile := findTestFile(t, "tcga_brca_annotated.vcf")

	meta, err := ReadMetadata(testFile)
	if err != nil {
		t.Fatalf("Failed to read metadata: %v", err)
	}

	patient, ok := meta.PatientID()
	if !ok {
		t.Fatal("Expected patient ID to be present")
	}
	if patient != "TCGA-A2-A0T2" {
		t.Errorf("Expected patient TCGA-A2-A0T2, got %s", patient)
	}

	caseID, ok := meta.CaseUUID()
	if !ok {
		t.Fatal("Expected case UUID to be present")
	}
	if caseID != uuid.MustParse("7b9f71aa-3a05-4bd6-95de-574fdf697dcd") {
		t.Errorf("Unexpected case UUID: %s", caseID)
	}

	tumor, ok := meta.TumorSampleID()
	if !ok {
		t.Fatal("Expected tumor sample ID to be present")
	}
	if tumor != "TCGA-A2-A0T2-01A-11D-A099-09" {
		t.Errorf("Unexpected tumor sample ID: %s", tumor)
	}

	normal, ok := meta.NormalSampleID()
	if !ok {
		t.Fatal("Expected normal sample ID to be present")
	}
	if normal != "TCGA-A2-A0T2-10A-01D-A099-09" {
		t.Errorf("Unexpected normal sample ID: %s", normal)
	}

	samples := meta.Samples()
	if len(samples) != 2 || samples[0] != "NORMAL" || samples[1] != "TUMOR" {
		t.Errorf("Expected samples [NORMAL TUMOR], got %v", samples)
	}
}

func TestParser_MetadataAbsent(t *testing.T) {
	testFile := findTestFile(t, "no_samples.vcf")

	meta, err := ReadMetadata(testFile)
	if err != nil {
		t.Fatalf("Failed to read metadata: %v", err)
	}

	if _, ok := meta.PatientID(); ok {
		t.Error("Expected patient ID to be absent")
	}
	if _, ok := meta.CaseUUID(); ok {
		t.Error("Expected case UUID to be absent")
	}
	if _, ok := meta.TumorSampleID(); ok {
		t.Error("Expected tumor sample ID to be absent")
	}
	if _, ok := meta.NormalSampleID(); ok {
		t.Error("Expected normal sample ID to be absent")
	}
	if meta.Samples() != nil {
		t.Errorf("Expected no samples, got %v", meta.Samples())
	}
}

func TestParser_SampleColumnFallback(t *testing.T) {
	input := "##fileformat=VCFv4.2\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tNORMAL\tTUMOR\n"

	parser, err := NewParserFromReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	meta := parser.Metadata()
	tumor, ok := meta.TumorSampleID()
	if !ok || tumor != "TUMOR" {
		t.Errorf("Expected tumor sample TUMOR via column fallback, got %q (present=%v)", tumor, ok)
	}
	normal, ok := meta.NormalSampleID()
	if !ok || normal != "NORMAL" {
		t.Errorf("Expected normal sample NORMAL via column fallback, got %q (present=%v)", normal, ok)
	}
	if _, ok := meta.PatientID(); ok {
		t.Error("Expected patient ID to be absent")
	}
}

func TestParser_MultiAllelic(t *testing.T) {
	testFile := findTestFile(t, "tcga_brca_annotated.vcf")

	tbl, err := ReadTable(testFile)
	if err != nil {
		t.Fatalf("Failed to read table: %v", err)
	}

	multi := tbl.Row(4)
	if len(multi.Alt) != 2 || multi.Alt[0] != "T" || multi.Alt[1] != "C" {
		t.Errorf("Expected alt [T C], got %v", multi.Alt)
	}

	missing := tbl.Row(5)
	if missing.Alt != nil {
		t.Errorf("Expected nil alt for missing allele, got %v", missing.Alt)
	}
	if !missing.HasQual || missing.Qual != 11.2 {
		t.Errorf("Expected qual 11.2, got %v (present=%v)", missing.Qual, missing.HasQual)
	}
}

func TestParser_Gzip(t *testing.T) {
	plain, err := os.ReadFile(findTestFile(t, "tcga_brca_annotated.vcf"))
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}

	gzPath := filepath.Join(t.TempDir(), "annotated.vcf.gz")
	out, err := os.Create(gzPath)
	if err != nil {
		t.Fatalf("Failed to create gzip file: %v", err)
	}
	gw := gzip.NewWriter(out)
	if _, err := gw.Write(plain); err != nil {
		t.Fatalf("Failed to write gzip data: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("Failed to close gzip writer: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Failed to close gzip file: %v", err)
	}

	tbl, err := ReadTable(gzPath)
	if err != nil {
		t.Fatalf("Failed to read gzipped table: %v", err)
	}
	if tbl.NumRows() != 6 {
		t.Errorf("Expected 6 records, got %d", tbl.NumRows())
	}
}

func TestParser_Deterministic(t *testing.T) {
	testFile := findTestFile(t, "tcga_brca_annotated.vcf")

	first, err := ReadTable(testFile)
	if err != nil {
		t.Fatalf("Failed to read table: %v", err)
	}
	second, err := ReadTable(testFile)
	if err != nil {
		t.Fatalf("Failed to read table: %v", err)
	}

	if first.NumRows() != second.NumRows() {
		t.Fatalf("Row counts differ: %d vs %d", first.NumRows(), second.NumRows())
	}
	for i := 0; i < first.NumRows(); i++ {
		a := strings.Join(first.Row(i).Cells, "\t")
		b := strings.Join(second.Row(i).Cells, "\t")
		if a != b {
			t.Errorf("Row %d differs between reads", i)
		}
	}
}

func TestTranscriptFilterRoundTrip(t *testing.T) {
	keep := "chr1\t100\t.\tA\tT\t.\tPASS\tCSQ=T|missense_variant|MODERATE|GENE1|ENSG01|Transcript|ENST00000123456.4|c.1A>T|p.Met1Leu|SNV\n"
	drop := "chr2\t200\t.\tG\tC\t.\tPASS\tCSQ=C|synonymous_variant|LOW|GENE2|ENSG02|Transcript|ENST00000999999.1|c.9G>C|p.Lys3Lys|SNV\n"

	parser, err := NewParserFromReader(strings.NewReader(annotatedHeader + keep + drop))
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	tbl, err := parser.ReadTable()
	if err != nil {
		t.Fatalf("Failed to read table: %v", err)
	}

	filtered, err := tbl.FilterTranscript("ENST00000123456")
	if err != nil {
		t.Fatalf("Failed to filter table: %v", err)
	}

	if filtered.NumRows() != 1 {
		t.Fatalf("Expected exactly 1 row, got %d", filtered.NumRows())
	}
	got := strings.Join(filtered.Row(0).Cells, "\t") + "\n"
	if got != keep {
		t.Errorf("Filtered row differs from source line:\ngot  %q\nwant %q", got, keep)
	}
	if !sameColumns(tbl.Columns(), filtered.Columns()) {
		t.Errorf("Filtered schema differs: %v vs %v", filtered.Columns(), tbl.Columns())
	}
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestParser_NoTrailingNewline(t *testing.T) {
	input := annotatedHeader +
		"chr1\t100\t.\tA\tT\t.\tPASS\tDP=10\n" +
		"chr2\t200\t.\tC\tG\t.\tPASS\tDP=20"

	parser, err := NewParserFromReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	tbl, err := parser.ReadTable()
	if err != nil {
		t.Fatalf("Failed to read table: %v", err)
	}
	if tbl.NumRows() != 2 {
		t.Fatalf("Expected 2 records, got %d", tbl.NumRows())
	}
	if tbl.Row(1).Pos != 200 {
		t.Errorf("Expected final record at position 200, got %d", tbl.Row(1).Pos)
	}
}

func TestParser_ColumnCountMismatch(t *testing.T) {
	input := annotatedHeader + "chr1\t100\t.\tA\tT\t.\tPASS\tDP=10\textra\n"

	parser, err := NewParserFromReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	_, err = parser.Next()
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
	if parseErr.Line != 5 {
		t.Errorf("Expected error at line 5, got %d", parseErr.Line)
	}
	if !strings.Contains(parseErr.Message, "expected 8 columns, found 9") {
		t.Errorf("Unexpected message: %s", parseErr.Message)
	}
}

func TestParser_InvalidPosition(t *testing.T) {
	input := annotatedHeader + "chr1\tabc\t.\tA\tT\t.\tPASS\tDP=10\n"

	parser, err := NewParserFromReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	_, err = parser.Next()
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
	if !strings.Contains(parseErr.Message, "invalid position") {
		t.Errorf("Unexpected message: %s", parseErr.Message)
	}
}

func TestParser_InvalidQual(t *testing.T) {
	input := annotatedHeader + "chr1\t100\t.\tA\tT\thigh\tPASS\tDP=10\n"

	parser, err := NewParserFromReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	_, err = parser.Next()
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
	if !strings.Contains(parseErr.Message, "invalid quality score") {
		t.Errorf("Unexpected message: %s", parseErr.Message)
	}
}

func TestParser_HeaderErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no header line",
			input: "chr1\t100\t.\tA\tT\t.\tPASS\tDP=10\n",
			want:  "expected #CHROM header line",
		},
		{
			name:  "empty file",
			input: "",
			want:  "no #CHROM header line found",
		},
		{
			name:  "mandatory columns out of order",
			input: "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tINFO\tFILTER\n",
			want:  `header column 7 is "INFO", want "FILTER"`,
		},
		{
			name:  "too few header columns",
			input: "#CHROM\tPOS\tID\tREF\tALT\n",
			want:  "expected at least 8 header columns, found 5",
		},
		{
			name:  "ninth column not FORMAT",
			input: "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tNORMAL\tTUMOR\n",
			want:  `header column 9 is "NORMAL"`,
		},
		{
			name:  "unterminated structured meta line",
			input: "##SAMPLE=<ID=TUMOR,NAME=TCGA-XX\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n",
			want:  "unterminated structured value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParserFromReader(strings.NewReader(tt.input))
			var headerErr *HeaderFormatError
			if !errors.As(err, &headerErr) {
				t.Fatalf("Expected HeaderFormatError, got %v", err)
			}
			if !strings.Contains(headerErr.Message, tt.want) {
				t.Errorf("Message %q does not contain %q", headerErr.Message, tt.want)
			}
		})
	}
}

func TestParseInfo(t *testing.T) {
	tests := []struct {
		name  string
		info  string
		key   string
		value string
	}{
		{"key value pair", "DP=44", "DP", "44"},
		{"multiple pairs", "DP=44;MQ=60.0", "MQ", "60.0"},
		{"flag key", "DP=44;SOMATIC", "SOMATIC", ""},
		{"value with equals", "HGVS=c.35G>T;DP=10", "HGVS", "c.35G>T"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseInfo(tt.info)
			got, ok := result[tt.key]
			if !ok {
				t.Fatalf("Expected key %s to be present", tt.key)
			}
			if got != tt.value {
				t.Errorf("Expected %q, got %q", tt.value, got)
			}
		})
	}

	t.Run("missing info", func(t *testing.T) {
		result := parseInfo(".")
		if len(result) != 0 {
			t.Errorf("Expected empty map, got %v", result)
		}
	})
}

func TestCSQKeysFromDescription(t *testing.T) {
	desc := "Consequence annotations from Ensembl VEP. Format: Allele|Consequence|Feature"
	keys := csqKeysFromDescription(desc)
	if len(keys) != 3 {
		t.Fatalf("Expected 3 keys, got %d", len(keys))
	}
	if keys[2] != "Feature" {
		t.Errorf("Expected third key Feature, got %s", keys[2])
	}

	if keys := csqKeysFromDescription("no format clause here"); keys != nil {
		t.Errorf("Expected nil keys, got %v", keys)
	}
}

func TestParseStructuredMeta(t *testing.T) {
	attrs, err := parseStructuredMeta(`ID=CSQ,Number=.,Description="Commas, inside = quotes",Source=VEP`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if attrs["ID"] != "CSQ" {
		t.Errorf("Expected ID=CSQ, got %q", attrs["ID"])
	}
	if attrs["Description"] != "Commas, inside = quotes" {
		t.Errorf("Quoted value mangled: %q", attrs["Description"])
	}
	if attrs["Source"] != "VEP" {
		t.Errorf("Expected Source=VEP, got %q", attrs["Source"])
	}

	if _, err := parseStructuredMeta(`ID=CSQ,Description="open quote`); err == nil {
		t.Error("Expected error for unterminated quote")
	}
}

func TestParseError(t *testing.T) {
	err := &ParseError{
		Line:    42,
		Message: "expected 8 columns, found 7",
	}

	expected := "vcf parse error at line 42: expected 8 columns, found 7"
	if err.Error() != expected {
		t.Errorf("Error message mismatch: got %q, want %q", err.Error(), expected)
	}
}

func TestHeaderFormatError(t *testing.T) {
	err := &HeaderFormatError{
		Line:    3,
		Message: "expected #CHROM header line",
	}

	expected := "vcf header error at line 3: expected #CHROM header line"
	if err.Error() != expected {
		t.Errorf("Error message mismatch: got %q, want %q", err.Error(), expected)
	}
}

// findTestFile locates a test file in the testdata directory.
func findTestFile(t *testing.T, name string) string {
	t.Helper()

	// Try different relative paths
	paths := []string{
		filepath.Join("testdata", name),
		filepath.Join("..", "..", "testdata", name),
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	t.Fatalf("Test file not found: %s", name)
	return ""
}
