package render

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/retail-report/internal/model"
)

// Artifact file names written next to the charts.
const (
	SummaryFile   = "summary.txt"
	DashboardFile = "dashboard.html"
)

// Renderer writes the text summary, the charts and the dashboard into Dir.
type Renderer struct {
	Dir      string
	Currency string
}

// New returns a Renderer writing into dir.
func New(dir, currency string) *Renderer {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Renderer{Dir: dir, Currency: currency}
}

// Name identifies the renderer in run phases and logs.
func (r *Renderer) Name() string { return "render" }

// Write renders every artifact. Existing files are overwritten.
func (r *Renderer) Write(ctx context.Context, report *model.Report) error {
	if report == nil {
		return eris.New("render: nil report")
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return eris.Wrapf(err, "render: create %s", r.Dir)
	}

	var summary bytes.Buffer
	if err := WriteSummary(&summary, report, r.Currency); err != nil {
		return eris.Wrap(err, "render: summary")
	}
	if err := r.writeFile(SummaryFile, summary.Bytes()); err != nil {
		return err
	}

	charts, err := Charts(report)
	if err != nil {
		return err
	}
	for _, c := range charts {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "render: context cancelled")
		}
		if err := r.writeFile(c.Name, []byte(c.SVG)); err != nil {
			return err
		}
	}

	var page bytes.Buffer
	if err := WriteDashboard(&page, report, charts, r.Currency); err != nil {
		return err
	}
	if err := r.writeFile(DashboardFile, page.Bytes()); err != nil {
		return err
	}

	zap.L().Info("render: wrote artifacts",
		zap.String("dir", r.Dir),
		zap.Int("charts", len(charts)),
	)
	return nil
}

func (r *Renderer) writeFile(name string, data []byte) error {
	path := filepath.Join(r.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "render: write %s", path)
	}
	return nil
}
