package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// zipOf builds a zip archive from name, content pairs.
func zipOf(t *testing.T, entries ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for i := 0; i+1 < len(entries); i += 2 {
		fw, err := w.Create(entries[i])
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(entries[i+1])); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func docxBody(text string) string {
	return `<w:document><w:body><w:p w:rsidR="00A1"><w:r><w:t xml:space="preserve"> ` + text + ` </w:t></w:r><w:r><w:t/></w:r></w:p></w:body></w:document>`
}

func TestExtractBytes(t *testing.T) {
	contentTypes := func(order string) string {
		if order == "reversed" {
			return `<Types><Override ContentType="` + docxMainContentType + `" PartName="/word/document2.xml"/></Types>`
		}
		return `<Types><Override PartName="/word/document2.xml" ContentType="` + docxMainContentType + `"/></Types>`
	}

	tests := []struct {
		name    string
		content []byte
		ext     string
		want    string
	}{
		{"plain", []byte("Hello world\nLine 2"), ".txt", "Hello world\nLine 2"},
		{"markdown utf8", []byte("caf\xc3\xa9"), ".md", "café"},
		{"invalid utf8 replaced", []byte("hello\x80world"), ".rst", "hello�world"},
		{"unknown extension is plain", []byte("raw content"), ".xyz", "raw content"},
		{"extension without dot", []byte("raw"), "TXT", "raw"},
		{"docx", zipOf(t, "word/document.xml", docxBody("Hello from docx")), ".docx", "Hello from docx"},
		{"docx content types", zipOf(t,
			"[Content_Types].xml", contentTypes("normal"),
			"word/document2.xml", docxBody("Second part"),
		), ".docx", "Second part"},
		{"docx content types reversed attributes", zipOf(t,
			"[Content_Types].xml", contentTypes("reversed"),
			"word/document2.xml", docxBody("Reversed"),
		), ".DOCX", "Reversed"},
		{"pptx slide order", zipOf(t,
			"ppt/slides/slide10.xml", `<p:sld><a:t>ten</a:t></p:sld>`,
			"ppt/slides/slide2.xml", `<p:sld><a:t>two</a:t><a:t lang="en">more</a:t></p:sld>`,
			"ppt/slides/_rels/slide2.xml.rels", `<a:t>ignored</a:t>`,
		), ".pptx", "two more ten"},
		{"pptx without slides", zipOf(t, "ppt/presentation.xml", "<p/>"), ".pptx", ""},
		{"odp document order", zipOf(t, "content.xml",
			`<office:text><text:h text:outline-level="1">Heading</text:h><text:p>Body <text:span>bold</text:span></text:p><text:p>Last</text:p></office:text>`,
		), ".odp", "Heading bold Last"},
		{"ods cells", zipOf(t, "content.xml",
			`<table:table-cell><text:p>Cell A</text:p></table:table-cell><table:table-cell><text:p>Cell B</text:p></table:table-cell><text:page-number>3</text:page-number>`,
		), ".ods", "Cell A Cell B"},
	}
	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractBytes(tt.content, tt.ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBytes_Errors(t *testing.T) {
	e := NewExtractor()
	tests := []struct {
		name    string
		content []byte
		ext     string
	}{
		{"pptx not a zip", []byte("not a zip"), ".pptx"},
		{"docx not a zip", []byte("not a zip"), ".docx"},
		{"odp missing content", zipOf(t, "meta.xml", "<x/>"), ".odp"},
		{"ods missing content", zipOf(t, "meta.xml", "<x/>"), ".ods"},
		{"docx missing document", zipOf(t, "other.xml", "<x/>"), ".docx"},
		{"pdf garbage", []byte("%PDF-garbage"), ".pdf"},
		{"xlsx garbage", []byte("garbage"), ".xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ExtractBytes(tt.content, tt.ext)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "extract "+tt.ext) {
				t.Errorf("error %q should name the extension", err)
			}
		})
	}

	_, err := e.ExtractBytes(zipOf(t, "meta.xml", "<x/>"), ".odp")
	if !errors.Is(err, errEntryNotFound) {
		t.Errorf("missing entry error = %v", err)
	}
}

func TestExtractBytes_Excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Title")
	f.SetCellValue("Sheet1", "A3", "Value 1")
	f.SetCellValue("Sheet1", "B3", "Value 2")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Title\nValue 1\tValue 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_RTF(t *testing.T) {
	got, err := NewExtractor().ExtractBytes([]byte(`{\rtf1\ansi Clustering search results\par}`), ".rtf")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if !strings.Contains(got, "Clustering search results") {
		t.Errorf("got %q", got)
	}
}

func TestExtract_Files(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "test.txt")
	if err := os.WriteFile(txt, []byte("File content"), 0600); err != nil {
		t.Fatal(err)
	}
	xlsx := filepath.Join(dir, "data.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Searchable text")
	if err := f.SaveAs(xlsx); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()
	odp := filepath.Join(dir, "slides.odp")
	if err := os.WriteFile(odp, zipOf(t, "content.xml", `<text:p>Slide text</text:p>`), 0600); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor()
	for path, want := range map[string]string{txt: "File content", xlsx: "Searchable text", odp: "Slide text"} {
		got, err := e.Extract(path)
		if err != nil {
			t.Fatalf("Extract(%s): %v", path, err)
		}
		if got != want {
			t.Errorf("Extract(%s) = %q, want %q", filepath.Base(path), got, want)
		}
	}

	if _, err := e.Extract(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestExtractor_Registry(t *testing.T) {
	e := NewExtractor()
	for _, ext := range []string{".pdf", "docx", ".ODT", ".rtf", ".md"} {
		if !e.Supports(ext) {
			t.Errorf("Supports(%q) = false", ext)
		}
	}
	if e.Supports(".xyz") {
		t.Error("Supports(.xyz) = true")
	}

	e.Register("xyz", func(b []byte) (string, error) { return strings.ToUpper(string(b)), nil })
	got, err := e.ExtractBytes([]byte("custom"), ".XYZ")
	if err != nil || got != "CUSTOM" {
		t.Errorf("custom extractor = %q, %v", got, err)
	}

	want := []string{".docx", ".md", ".odp", ".ods", ".odt", ".pdf", ".pptx", ".rst", ".rtf", ".txt", ".xlsx", ".xyz"}
	if got := e.Extensions(); !reflect.DeepEqual(got, want) {
		t.Errorf("Extensions() = %v", got)
	}
}
