package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/template"
	"time"

	"github.com/rustyeddy/dealbook/internal/id"
	"github.com/rustyeddy/dealbook/ledger"
)

// Summary is one rendered performance report for an account and window.
type Summary struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`

	Account  string    `json:"account"`
	Currency string    `json:"currency"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Note     string    `json:"note,omitempty"`

	StartBalance float64 `json:"start_balance"`
	Total        float64 `json:"total"`
	// Assigned excludes deals left under magic 0.
	Assigned   float64 `json:"total_assigned"`
	Change     float64 `json:"percent_change"`
	Color      Color   `json:"color"`
	Unresolved int     `json:"unresolved"`

	Floating       float64 `json:"floating"`
	FloatingPct    float64 `json:"floating_pct"`
	CurrentBalance float64 `json:"current_balance"`

	Rows         []Row        `json:"rows"`
	Distribution Distribution `json:"distribution"`
}

// Input collects what Build needs. Floating is optional.
type Input struct {
	Account        string
	Currency       string
	Note           string
	Start          time.Time
	End            time.Time
	StartBalance   float64
	CurrentBalance float64
	Result         ledger.AggregateResult
	Floating       *ledger.FloatingResult
	Labels         Labeler
	Sort           SortOption
	Thresholds     Thresholds
	Now            time.Time
}

func Build(in Input) Summary {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	th := in.Thresholds
	if th == (Thresholds{}) {
		th = DefaultThresholds
	}

	rows := ResultRows(in.Result, in.Labels)
	SortRows(rows, in.Sort)

	change := PercentChange(in.StartBalance+in.Result.Total, in.StartBalance)
	s := Summary{
		ID:             id.At(now),
		Created:        now,
		Account:        in.Account,
		Currency:       in.Currency,
		Start:          in.Start,
		End:            in.End,
		Note:           in.Note,
		StartBalance:   Cents(in.StartBalance),
		Total:          Cents(in.Result.Total),
		Assigned:       Cents(in.Result.TotalExcludingUnassigned),
		Change:         Cents(change),
		Color:          th.Color(change),
		Unresolved:     in.Result.Unresolved,
		CurrentBalance: Cents(in.CurrentBalance),
		Rows:           rows,
		Distribution:   Split(rows),
	}
	if in.Floating != nil {
		s.Floating = Cents(in.Floating.Total)
		if in.CurrentBalance != 0 {
			s.FloatingPct = Cents(in.Floating.Total / in.CurrentBalance * 100)
		}
	}
	return s
}

func WriteText(w io.Writer, s Summary) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Performance Summary")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Report ID:     %s\n", s.ID)
	fmt.Fprintf(w, "Account:       %s\n", s.Account)
	if s.Note != "" {
		fmt.Fprintf(w, "Note:          %s\n", s.Note)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", formatBound(s.Start))
	fmt.Fprintf(w, "End:           %s\n", formatBound(s.End))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %s\n", Money(s.StartBalance, s.Currency))
	fmt.Fprintf(w, "Net P/L:       %s\n", Money(s.Total, s.Currency))
	fmt.Fprintf(w, "Change:        %s (%s)\n", Percent(s.Change), s.Color)
	if s.Unresolved > 0 {
		fmt.Fprintf(w, "Assigned P/L:  %s\n", Money(s.Assigned, s.Currency))
		fmt.Fprintf(w, "Unresolved:    %d deals\n", s.Unresolved)
	}
	if s.Floating != 0 {
		fmt.Fprintf(w, "Floating:      %s (%s)\n", Money(s.Floating, s.Currency), Percent(s.FloatingPct))
		fmt.Fprintf(w, "Balance:       %s\n", Money(s.CurrentBalance, s.Currency))
	}

	if len(s.Rows) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Results")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, r := range s.Rows {
			fmt.Fprintln(w, r.Caption(s.Currency))
		}
	}
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "(open)"
	}
	return t.Format("2006-01-02 15:04:05")
}

var orgFuncs = template.FuncMap{
	"money":   func(x float64) string { return Round(x).StringFixed(2) },
	"percent": Percent,
	"bound":   formatBound,
}

// OrgTemplate renders a Summary as an Org-mode entry.
const OrgTemplate = `* PERFORMANCE: {{.Account}} {{bound .Start}} .. {{bound .End}}
:PROPERTIES:
:REPORT_ID:   {{.ID}}
:ACCOUNT:     {{.Account}}
:CURRENCY:    {{.Currency}}
:START_BAL:   {{money .StartBalance}}
:NET_PL:      {{money .Total}}
:CHANGE_PCT:  {{percent .Change}}
:COLOR:       {{.Color}}
{{- if .Unresolved}}
:UNRESOLVED:  {{.Unresolved}}
{{- end}}
{{- if ne .Floating 0.0}}
:FLOATING:    {{money .Floating}}
{{- end}}
:CREATED:     [{{.Created.Format "2006-01-02 Mon 15:04"}}]
:END:
{{- if .Note}}

{{.Note}}
{{- end}}

** Results
| Key | Label | P/L |
|-----+-------+-----|
{{- range .Rows}}
| {{.Kind}} {{.ID}} | {{.Label}} | {{money .Value}} |
{{- end}}

** Distribution
- Profits: *{{money .Distribution.TotalProfit}}*
- Losses:  *{{money .Distribution.TotalLoss}}*
`

var orgTmpl = template.Must(template.New("summary").Funcs(orgFuncs).Parse(OrgTemplate))

func WriteOrg(w io.Writer, s Summary) error {
	return orgTmpl.Execute(w, s)
}

// SaveOrg writes the Org rendering of s to path.
func SaveOrg(path string, s Summary) error {
	buf := new(bytes.Buffer)
	if err := WriteOrg(buf, s); err != nil {
		return fmt.Errorf("render org: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
