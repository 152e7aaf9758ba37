package vcfingest

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Writer emits an annotated VCF carrying a VRS_Allele_IDs INFO field
// (grounded on internal/output/vcf.go's header-rewrite and buffered-line
// style, adapted from VEP's CSQ convention to a single VRS id list).
type Writer struct {
	w           *bufio.Writer
	headerLines []string
}

// NewWriter wraps w, echoing headerLines (as read by Reader) with an
// inserted VRS_Allele_IDs INFO declaration.
func NewWriter(w io.Writer, headerLines []string) *Writer {
	return &Writer{w: bufio.NewWriter(w), headerLines: headerLines}
}

// WriteHeader writes the original header lines plus the VRS_Allele_IDs
// INFO declaration, inserted immediately before #CHROM.
func (vw *Writer) WriteHeader() error {
	infoLine := `##INFO=<ID=VRS_Allele_IDs,Number=R,Type=String,Description="GA4GH VRS allele identifier for the REF allele followed by each ALT allele, in order">`
	for _, line := range vw.headerLines {
		if strings.HasPrefix(line, "#CHROM") {
			if _, err := vw.w.WriteString(infoLine + "\n"); err != nil {
				return err
			}
		}
		if _, err := vw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Write emits one VCF data line for v, with ids (the REF allele's id
// first, then one per ALT allele in v.Alt's comma-separated order)
// appended to INFO.
func (vw *Writer) Write(v *Variant, ids []string) error {
	info := v.RawInfo
	if info == "" || info == "." {
		info = "VRS_Allele_IDs=" + strings.Join(ids, ",")
	} else {
		info = info + ";VRS_Allele_IDs=" + strings.Join(ids, ",")
	}

	var b strings.Builder
	b.Grow(256)
	b.WriteString(v.Chrom)
	b.WriteByte('\t')
	fmt.Fprintf(&b, "%d", v.Pos)
	b.WriteByte('\t')
	b.WriteString(v.ID)
	b.WriteByte('\t')
	b.WriteString(v.Ref)
	b.WriteByte('\t')
	b.WriteString(v.Alt)
	b.WriteByte('\t')
	if v.Qual == "" {
		b.WriteByte('.')
	} else {
		b.WriteString(v.Qual)
	}
	b.WriteByte('\t')
	b.WriteString(v.Filter)
	b.WriteByte('\t')
	b.WriteString(info)
	if v.SampleColumns != "" {
		b.WriteByte('\t')
		b.WriteString(v.SampleColumns)
	}
	b.WriteByte('\n')

	_, err := vw.w.WriteString(b.String())
	return err
}

// Flush flushes the underlying buffered writer.
func (vw *Writer) Flush() error {
	return vw.w.Flush()
}
