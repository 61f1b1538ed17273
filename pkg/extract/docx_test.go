package extract

import (
	"archive/zip"
	"bytes"
	"testing"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const docxHeader = `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
const docxFooter = `</w:body></w:document>`

func TestText_Docx(t *testing.T) {
	data := buildDocx(t, docxHeader+
		`<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>Second</w:t></w:r><w:r><w:t xml:space="preserve"> paragraph.</w:t></w:r></w:p>`+
		docxFooter)

	text, err := Text(data, "contract.docx")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := "First paragraph. Second paragraph."
	if text != want {
		t.Fatalf("text = %q, want %q", text, want)
	}
}

func TestText_DocxMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("word/styles.xml"); err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	if _, err := Text(buf.Bytes(), "broken.docx"); err == nil {
		t.Fatalf("expected error for missing document.xml")
	}
}

func TestText_DocxEmptyBody(t *testing.T) {
	data := buildDocx(t, docxHeader+docxFooter)
	if _, err := Text(data, "empty.docx"); err == nil {
		t.Fatalf("expected error for empty document")
	}
}

func TestText_UnsupportedExtension(t *testing.T) {
	if _, err := Text([]byte("hello"), "notes.txt"); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}

func TestNormalizeText_PreservesFormFeeds(t *testing.T) {
	got := normalizeText("page one\ntext\fpage  two\t text")
	want := "page one text\fpage two text"
	if got != want {
		t.Fatalf("normalizeText = %q, want %q", got, want)
	}
}
