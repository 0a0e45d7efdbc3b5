package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/muesli/reflow/wordwrap"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
	width  int
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
		width:  80,
	}
}

// WithWidth sets the wrap width used by text output.
func (f *Formatter) WithWidth(width int) *Formatter {
	if width > 0 {
		f.width = width
	}
	return f
}

// FormatJSON writes any value as indented JSON
func (f *Formatter) FormatJSON(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatListing prints one `i: name - address - V<n>` line per collection.
func (f *Formatter) FormatListing(items []ListingDTO) error {
	for _, it := range items {
		line := fmt.Sprintf("%d: %s - %s - V%d", it.Index, it.Name, it.Address, it.Version)
		if it.Hidden {
			line += " (hidden)"
		}
		if _, err := fmt.Fprintln(f.writer, line); err != nil {
			return err
		}
	}
	return nil
}

// FormatEvent prints a single event line.
func (f *Formatter) FormatEvent(ev EventDTO) error {
	_, err := fmt.Fprintln(f.writer, EventLine(ev))
	return err
}

// FormatFactory prints factory settings as aligned key/value lines.
func (f *Formatter) FormatFactory(dto FactoryDTO) error {
	def := ""
	if dto.Default {
		def = " (default)"
	}
	return f.keyValues([][2]string{
		{"factory", dto.Address + def},
		{"owner", dto.Owner},
		{"implementation", fmt.Sprintf("%s (V%d)", dto.Implementation, dto.Version)},
		{"beneficiary", dto.Beneficiary},
		{"creation fee", etherOf(dto.CreationFee)},
		{"minting fee", fractionOf(dto.MintingFee)},
		{"collections", strconv.FormatUint(dto.CollectionCount, 10)},
	})
}

// FormatDescription prints text wrapped to the formatter width.
func (f *Formatter) FormatDescription(text string) error {
	_, err := fmt.Fprintln(f.writer, wordwrap.String(text, f.width))
	return err
}

func (f *Formatter) keyValues(rows [][2]string) error {
	widest := 0
	for _, r := range rows {
		widest = max(widest, len(r[0])+1)
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(f.writer, "%-*s  %s\n", widest, r[0]+":", r[1]); err != nil {
			return err
		}
	}
	return nil
}

// EventLine renders an event as `#seq time emitter Name(k=v, ...)`.
func EventLine(ev EventDTO) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s %s %s(", ev.Seq, ev.Time.Format(time.DateTime), shortHex(ev.Emitter), ev.Name)
	for i, a := range ev.Attrs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Key)
		b.WriteByte('=')
		b.WriteString(a.Value)
	}
	b.WriteByte(')')
	return b.String()
}
