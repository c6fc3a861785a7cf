package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"techread/internal/model"
	"techread/internal/rank"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	t := newTable(w)
	t.Header(header)
	if err := t.Bulk(rows); err != nil {
		return fmt.Errorf("render: table rows: %w", err)
	}
	if err := t.Render(); err != nil {
		return fmt.Errorf("render: table: %w", err)
	}
	return nil
}

// Sources prints the sources table.
func (p *Printer) Sources(sources []model.Source) error {
	p.Heading("Sources")
	rows := make([][]string, 0, len(sources))
	for _, s := range sources {
		enabled := "-"
		if s.Enabled {
			enabled = "yes"
		}
		rows = append(rows, []string{
			strconv.FormatInt(s.ID, 10),
			enabled,
			fmt.Sprintf("%.2f", s.Weight),
			s.Name,
			s.URL,
			s.Tags,
		})
	}
	return renderTable(p.out, []string{"id", "enabled", "weight", "name", "url", "tags"}, rows)
}

// Ranked prints ranked posts with the reason for each score.
func (p *Printer) Ranked(posts []model.RankedPost, wpm float64) error {
	p.Heading("Ranked posts")
	rows := make([][]string, 0, len(posts))
	for i, rp := range posts {
		mins := 0
		if rp.WordCount > 0 {
			mins = rank.EstimatedMinutes(rp.WordCount, wpm)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(rp.ID, 10),
			stateInitial(rp.ReadState),
			fmt.Sprintf("%.3f", rp.Score),
			strconv.Itoa(mins),
			rp.Title,
			Why(rp.BreakdownJSON),
		})
	}
	return renderTable(p.out, []string{"rank", "id", "state", "score", "mins", "title", "why"}, rows)
}

func stateInitial(state string) string {
	if state == "" {
		state = model.StateUnread
	}
	return strings.ToUpper(state[:1])
}

// Why condenses a stored breakdown into "fresh F | topic H | len -P".
func Why(breakdownJSON string) string {
	if breakdownJSON == "" {
		return ""
	}
	var b rank.Breakdown
	if err := json.Unmarshal([]byte(breakdownJSON), &b); err != nil {
		return ""
	}
	return fmt.Sprintf("fresh %s | topic %d | len -%s",
		strconv.FormatFloat(b.Freshness, 'f', -1, 64), b.TopicHits,
		strconv.FormatFloat(b.LengthPenalty, 'f', -1, 64))
}
