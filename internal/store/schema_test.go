package store

import (
	"strings"
	"testing"
)

func TestSchemaAmountColumnsUseScaleTwo(t *testing.T) {
	// Amounts are validated to at most 2 fractional digits; the columns must
	// store exactly that scale so the database never holds sub-cent values.
	if got := strings.Count(schemaDDL, "NUMERIC(19, 2)"); got != 2 {
		t.Fatalf("expected 2 scale-2 amount columns, found %d", got)
	}
	if strings.Contains(schemaDDL, "NUMERIC(19, 4)") {
		t.Fatal("amount columns must not carry sub-cent scale")
	}
}
