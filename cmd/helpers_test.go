package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/retail-report/internal/config"
)

const sampleCSV = `InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country
536365,85123A,WHITE HANGING HEART,6,2010-12-01 08:26:00,2.55,17850,United Kingdom
536366,71053,WHITE METAL LANTERN,2,2010-12-02 09:00:00,3.39,17850,United Kingdom
C536379,D,Discount,-1,2010-12-01 09:41:00,27.50,14527,United Kingdom
536370,22728,ALARM CLOCK,24,2011-01-05 08:45:00,3.75,12583,France
536371,22729,ALARM CLOCK BLUE,1,2011-01-05 08:45:00,3.75,,France
`

func writeSampleCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "online_retail.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	return path
}

// testConfig returns the defaults config.Load would produce, writing
// artifacts under a temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Input: config.InputConfig{Timezone: "UTC"},
		Report: config.ReportConfig{
			TopN:     10,
			OutDir:   filepath.Join(t.TempDir(), "report"),
			Formats:  []string{"csv", "xlsx", "json"},
			Render:   true,
			Currency: "£",
		},
		Store: config.StoreConfig{Driver: "none"},
		Log:   config.LogConfig{Level: "error", Format: "json"},
	}
}

// useConfig installs c as the global config for the duration of the test.
func useConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

// setFlags sets command flags and restores their defaults after the test.
func setFlags(t *testing.T, cmd *cobra.Command, values map[string]string) {
	t.Helper()
	for name, v := range values {
		require.NoError(t, cmd.Flags().Set(name, v), name)
	}
	t.Cleanup(func() {
		for name := range values {
			fl := cmd.Flags().Lookup(name)
			_ = fl.Value.Set(fl.DefValue)
			fl.Changed = false
		}
	})
}

// execute runs cmd.RunE with a background context and captures stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetContext(context.TODO())
	})
	err := cmd.RunE(cmd, args)
	return out.String(), err
}
