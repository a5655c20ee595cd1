package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	paradox "github.com/yamaru/paradox-db-tool"
	"github.com/yamaru/paradox-db-tool/internal/types"
)

var (
	filename     = flag.String("file", "", "Paradox .DB file to browse")
	password     = flag.String("password", "", "Password for encrypted tables")
	encoding     = flag.String("encoding", "", "Codepage override, e.g. cp866")
	exportFormat = flag.String("export", "", "Export format: json, csv (skips TUI)")
	exportFile   = flag.String("output", "", "Export output file (default: stdout)")
)

// ParadoxApp holds the TUI state for one open table
type ParadoxApp struct {
	app         *tview.Application
	recordList  *tview.List
	detailsText *tview.TextView
	footer      *tview.TextView
	searchInput *tview.InputField
	pages       *tview.Pages

	table      *paradox.Table
	searchTerm string
	searchHits []int
	currentHit int
}

func main() {
	flag.Parse()

	if *filename == "" {
		fmt.Printf("Usage: %s -file <table.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	table, err := paradox.ReadTable(*filename, &paradox.Options{
		Encoding: *encoding,
		Password: *password,
	})
	if err != nil {
		fmt.Printf("Error loading table: %v\n", err)
		os.Exit(1)
	}

	if *exportFormat != "" {
		if err := exportTable(table, *exportFormat, *exportFile); err != nil {
			fmt.Printf("Error exporting table: %v\n", err)
			os.Exit(1)
		}
		return
	}

	app := newParadoxApp(table)
	if err := app.run(); err != nil {
		fmt.Printf("TUI error: %v\n", err)
		os.Exit(1)
	}
}

func newParadoxApp(table *paradox.Table) *ParadoxApp {
	p := &ParadoxApp{
		app:   tview.NewApplication(),
		table: table,
	}

	p.recordList = tview.NewList().ShowSecondaryText(false)
	p.recordList.SetBorder(true).SetTitle(" Records ")
	for i, row := range table.Rows {
		p.recordList.AddItem(fmt.Sprintf("#%d  %s", i+1, rowLabel(row)), "", 0, nil)
	}
	p.recordList.SetChangedFunc(func(index int, _, _ string, _ rune) {
		p.showRecord(index)
	})

	p.detailsText = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	p.detailsText.SetBorder(true).SetTitle(" Fields ")

	p.footer = tview.NewTextView().SetDynamicColors(true)
	p.updateFooter()

	p.searchInput = tview.NewInputField().SetLabel("/")
	p.searchInput.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			p.search(p.searchInput.GetText())
		}
		p.pages.HidePage("search")
		p.app.SetFocus(p.recordList)
	})

	main := tview.NewFlex().
		AddItem(p.recordList, 0, 1, true).
		AddItem(p.detailsText, 0, 2, false)
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(main, 0, 1, true).
		AddItem(p.footer, 1, 0, false)

	p.pages = tview.NewPages().
		AddPage("main", layout, true, true).
		AddPage("search", modal(p.searchInput, 40, 3), true, false).
		AddPage("reference", modal(p.referenceView(), 60, 20), true, false)

	p.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		front, _ := p.pages.GetFrontPage()
		if front != "main" {
			if event.Key() == tcell.KeyEscape {
				p.pages.SwitchToPage("main")
				p.app.SetFocus(p.recordList)
				return nil
			}
			return event
		}
		switch event.Rune() {
		case 'q':
			p.app.Stop()
			return nil
		case '/':
			p.searchInput.SetText("")
			p.pages.ShowPage("search")
			p.app.SetFocus(p.searchInput)
			return nil
		case 'n':
			p.nextHit(1)
			return nil
		case 'N':
			p.nextHit(-1)
			return nil
		case 'r':
			p.pages.ShowPage("reference")
			return nil
		}
		return event
	})

	if len(table.Rows) > 0 {
		p.showRecord(0)
	}
	return p
}

func (p *ParadoxApp) run() error {
	return p.app.SetRoot(p.pages, true).Run()
}

// showRecord renders all fields of one record into the details pane.
func (p *ParadoxApp) showRecord(index int) {
	if index < 0 || index >= len(p.table.Rows) {
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "[yellow]Record %d of %d[-]\n\n", index+1, len(p.table.Rows))
	for i, v := range p.table.Rows[index] {
		f := p.table.Meta.Fields[i]
		rendered := v.String()
		if v.IsNull() {
			rendered = "[gray](null)[-]"
		}
		fmt.Fprintf(&sb, "[green]%-20s[-] [blue]%-13s[-] %s\n", f.Name, f.Type, rendered)
	}
	p.detailsText.SetText(sb.String())
}

func (p *ParadoxApp) updateFooter() {
	warn := ""
	if n := len(p.table.Warnings); n > 0 {
		warn = fmt.Sprintf("  [red]%d warnings[-]", n)
	}
	p.footer.SetText(fmt.Sprintf(
		"[yellow]q[-] quit  [yellow]/[-] search  [yellow]n/N[-] next/prev hit  [yellow]r[-] schema%s", warn))
}

// search collects the records whose rendered cells contain term.
func (p *ParadoxApp) search(term string) {
	p.searchTerm = strings.ToLower(strings.TrimSpace(term))
	p.searchHits = p.searchHits[:0]
	p.currentHit = 0
	if p.searchTerm == "" {
		p.updateFooter()
		return
	}
	for i, row := range p.table.Rows {
		for _, v := range row {
			if strings.Contains(strings.ToLower(v.String()), p.searchTerm) {
				p.searchHits = append(p.searchHits, i)
				break
			}
		}
	}
	if len(p.searchHits) > 0 {
		p.recordList.SetCurrentItem(p.searchHits[0])
	}
	p.footer.SetText(fmt.Sprintf("[yellow]%d[-] records match %q", len(p.searchHits), p.searchTerm))
}

// nextHit jumps to the next or previous search hit.
func (p *ParadoxApp) nextHit(dir int) {
	if len(p.searchHits) == 0 {
		return
	}
	p.currentHit = (p.currentHit + dir + len(p.searchHits)) % len(p.searchHits)
	p.recordList.SetCurrentItem(p.searchHits[p.currentHit])
}

// referenceView lists the schema with type details.
func (p *ParadoxApp) referenceView() tview.Primitive {
	list := tview.NewList().ShowSecondaryText(true)
	list.SetBorder(true).SetTitle(" Schema ")
	for i, f := range p.table.Meta.Fields {
		list.AddItem(
			fmt.Sprintf("%d. %s", i+1, f.Name),
			fmt.Sprintf("   %s, %d bytes", f.Type, f.Size),
			0, nil)
	}
	return list
}

// modal centers a primitive in a fixed-size floating window.
func modal(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
}

// rowLabel picks the first non-null text cell as the list label.
func rowLabel(row []types.Value) string {
	for _, v := range row {
		if v.Kind == types.KindText && v.Str != "" {
			return v.Str
		}
	}
	for _, v := range row {
		if !v.IsNull() {
			return v.String()
		}
	}
	return "(empty)"
}

// exportTable writes the table as json or csv, bypassing the TUI.
func exportTable(t *paradox.Table, format, path string) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	switch format {
	case "json":
		records := make([]map[string]interface{}, 0, len(t.Rows))
		for _, row := range t.Rows {
			rec := make(map[string]interface{}, len(row))
			for i, v := range row {
				if v.IsNull() {
					rec[t.Meta.Fields[i].Name] = nil
				} else {
					rec[t.Meta.Fields[i].Name] = v.String()
				}
			}
			records = append(records, rec)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "csv":
		w := csv.NewWriter(out)
		header := make([]string, len(t.Meta.Fields))
		for i, f := range t.Meta.Fields {
			header[i] = f.Name
		}
		if err := w.Write(header); err != nil {
			return err
		}
		for _, row := range t.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = v.String()
			}
			if err := w.Write(cells); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
