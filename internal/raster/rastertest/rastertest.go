// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rastertest builds small PDF fixtures for rasterizer tests.
package rastertest

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

// PDF returns an A4 document with n pages, each labelled with its number.
func PDF(t testing.TB, n int) []byte {
	t.Helper()
	return build(t, n, nil)
}

// EncryptedPDF returns an n-page document protected by a user password.
func EncryptedPDF(t testing.TB, n int, password string) []byte {
	t.Helper()
	return build(t, n, func(pdf *gofpdf.Fpdf) {
		pdf.SetProtection(gofpdf.CnProtectPrint, password, "owner-"+password)
	})
}

func build(t testing.TB, n int, opt func(*gofpdf.Fpdf)) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "pt", "A4", "")
	if opt != nil {
		opt(pdf)
	}
	pdf.SetFont("Helvetica", "", 24)
	for i := 1; i <= n; i++ {
		pdf.AddPage()
		pdf.Text(72, 100, fmt.Sprintf("Page %d", i))
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("building fixture PDF: %v", err)
	}
	return buf.Bytes()
}

// EmptyPDF returns a well-formed document whose page tree has no pages.
func EmptyPDF() []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [] /Count 0 >>",
	}
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}
