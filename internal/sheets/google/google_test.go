package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	ports "mindful/internal/sheets"
)

func testRow() ports.SpendRow {
	return ports.SpendRow{
		SpendID:     "spend-1",
		Date:        time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC),
		Wallet:      "Essentials",
		Description: "Groceries",
		Category:    "Food",
		Amount:      decimal.RequireFromString("42.1"),
		Tags:        []string{"weekly", "shop"},
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Spends", 2026, "2026 Spends"},
		{"  Spends ", 2025, "2025 Spends"},
		{"2024 Spends", 2026, "2024 Spends"},
		{"", 2026, ""},
		{"12345", 2026, "2026 12345"},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			assert.Equal(t, tt.want, yearPrefixedName(tt.base, tt.year))
		})
	}
}

func TestRowValues(t *testing.T) {
	assert.Equal(t,
		[]any{"2026-04-09", "Essentials", "Groceries", "Food", "42.10", "weekly, shop", "spend-1"},
		rowValues(testRow()))
}

func TestNew_RequiresConfiguration(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.EqualError(t, err, "missing spreadsheet id")

	_, err = New(context.Background(), Config{SpreadsheetID: "id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")

	_, err = New(context.Background(), Config{SpreadsheetID: "id", CredentialsFile: "/non/existent.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}

func TestExportSpend_Validation(t *testing.T) {
	c := NewWithService(nil, "id", "")
	assert.Equal(t, "Spends", c.sheetBase)

	bad := testRow()
	bad.SpendID = ""
	_, err := c.ExportSpend(context.Background(), bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	_, err = c.ExportSpend(context.Background(), testRow())
	assert.EqualError(t, err, "sheets service not initialized")
}

func TestExportSpend_AppendsRow(t *testing.T) {
	var gotPath string
	var gotBody gsheet.ValueRange

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-id","updates":{"updatedRange":"'2026 Spends'!A7:G7","updatedRows":1}}`))
	}))
	defer srv.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	c := NewWithService(svc, "sheet-id", "Spends")
	ref, err := c.ExportSpend(context.Background(), testRow())
	require.NoError(t, err)

	assert.Equal(t, "'2026 Spends'!A7:G7", ref)
	assert.True(t, strings.HasSuffix(gotPath, ":append"), gotPath)
	assert.Contains(t, gotPath, "sheet-id")
	require.Len(t, gotBody.Values, 1)
	assert.Equal(t, "Groceries", gotBody.Values[0][2])
}
