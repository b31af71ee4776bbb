package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/wavelead/crm-engine/internal/entity"
)

// DefaultCountryCode is prefixed to phone numbers exported without a leading
// "+". Irish deployment default; overridable via config.
const DefaultCountryCode = "+353"

// csvHeader is the wasender contract. Column order is fixed and the
// icebreaker column is always empty.
const csvHeader = `"WhatsApp Number(with country code)","First Name","Last Name","icebreaker"`

// Exporter serializes eligible leads into the CSV consumed by the external
// bulk sender.
type Exporter struct {
	CountryCode string
}

func NewExporter(countryCode string) *Exporter {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	return &Exporter{CountryCode: countryCode}
}

// ExportCSV renders one row per lead with every field double-quoted. The
// bulk sender chokes on unquoted fields, so encoding/csv (which quotes only
// when required) is not usable here; quoting is RFC 4180 otherwise.
func (e *Exporter) ExportCSV(leads []*entity.Lead) string {
	var b strings.Builder
	b.WriteString(csvHeader)
	b.WriteString("\n")

	for _, lead := range leads {
		row := []string{
			e.NormalizeNumber(lead.PhoneNumber),
			lead.FirstName,
			lead.LastName,
			"", // icebreaker
		}
		for i, field := range row {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(quoteField(field))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// NormalizeNumber prefixes the country code exactly once. Numbers that
// already carry a "+" are left untouched so re-exporting never
// double-prefixes.
func (e *Exporter) NormalizeNumber(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	return e.CountryCode + phone
}

func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

var filenameUnsafe = regexp.MustCompile(`\s+`)

// ExportFilename follows the wasender_<name>_<timestamp>.csv pattern.
func ExportFilename(campaignName string, now time.Time) string {
	name := filenameUnsafe.ReplaceAllString(strings.TrimSpace(campaignName), "_")
	return fmt.Sprintf("wasender_%s_%d.csv", name, now.Unix())
}
