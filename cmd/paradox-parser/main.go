package main

import (
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/olekukonko/tablewriter"

	paradox "github.com/yamaru/paradox-db-tool"
	"github.com/yamaru/paradox-db-tool/internal/analyzer"
	"github.com/yamaru/paradox-db-tool/internal/types"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var (
		inputFile    = flag.String("file", "", "Path to Paradox .DB file")
		outputFormat = flag.String("format", "text", "Output format: text, json, csv")
		outputFile   = flag.String("output", "", "Output file (default: stdout)")
		password     = flag.String("password", "", "Password for encrypted tables")
		encoding     = flag.String("encoding", "", "Codepage override, e.g. cp866")
		analyze      = flag.Bool("analyze", false, "Print per-field statistics instead of records")
		verbose      = flag.Bool("v", false, "Verbose output")
		showVersion  = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("Paradox Table Parser\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		return
	}

	if *inputFile == "" {
		fmt.Fprintf(os.Stderr, "Error: -file is required\n")
		flag.Usage()
		os.Exit(1)
	}

	if *verbose {
		log.Printf("Opening table: %s", *inputFile)
		log.Printf("Output format: %s", *outputFormat)
	}

	out := io.Writer(os.Stdout)
	if *outputFile != "" {
		f, err := os.Create(*outputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	table, err := paradox.ReadTable(*inputFile, &paradox.Options{
		Encoding: *encoding,
		Password: *password,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading table: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		log.Printf("Decoded %d records, %d fields, codepage %q",
			len(table.Rows), table.Meta.FieldCount, table.Meta.Codepage)
	}

	if *analyze {
		if err := writeAnalysis(out, table); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing analysis: %v\n", err)
			os.Exit(1)
		}
		return
	}

	switch *outputFormat {
	case "text":
		err = writeText(out, table)
	case "json":
		err = writeJSON(out, table)
	case "csv":
		err = writeCSV(out, table)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", *outputFormat)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
}

// writeText renders the schema and the records as aligned tables.
func writeText(out io.Writer, t *paradox.Table) error {
	fmt.Fprintf(out, "%d records, %d fields, codepage %s\n\n",
		t.Meta.RecordCount, t.Meta.FieldCount, orUnknown(t.Meta.Codepage))

	schema := tablewriter.NewWriter(out)
	schema.SetHeader([]string{"#", "Field", "Type", "Size"})
	for i, f := range t.Meta.Fields {
		schema.Append([]string{
			fmt.Sprintf("%d", i+1), f.Name, f.Type.String(), fmt.Sprintf("%d", f.Size),
		})
	}
	schema.Render()
	fmt.Fprintln(out)

	data := tablewriter.NewWriter(out)
	data.SetHeader(fieldNames(t.Meta))
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = v.String()
		}
		data.Append(cells)
	}
	data.Render()

	for _, w := range t.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	return nil
}

// exportDocument is the JSON export shape
type exportDocument struct {
	Metadata exportMetadata           `json:"metadata"`
	Warnings []string                 `json:"warnings,omitempty"`
	Records  []map[string]interface{} `json:"records"`
}

type exportMetadata struct {
	RecordCount uint32        `json:"record_count"`
	FieldCount  uint16        `json:"field_count"`
	Codepage    string        `json:"codepage,omitempty"`
	Fields      []exportField `json:"fields"`
}

type exportField struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size uint16 `json:"size"`
}

func writeJSON(out io.Writer, t *paradox.Table) error {
	doc := exportDocument{
		Metadata: exportMetadata{
			RecordCount: t.Meta.RecordCount,
			FieldCount:  t.Meta.FieldCount,
			Codepage:    t.Meta.Codepage,
		},
		Records: make([]map[string]interface{}, 0, len(t.Rows)),
	}
	for _, f := range t.Meta.Fields {
		doc.Metadata.Fields = append(doc.Metadata.Fields, exportField{
			Name: f.Name, Type: f.Type.String(), Size: f.Size,
		})
	}
	for _, w := range t.Warnings {
		doc.Warnings = append(doc.Warnings, w.String())
	}
	for _, row := range t.Rows {
		rec := make(map[string]interface{}, len(row))
		for i, v := range row {
			rec[t.Meta.Fields[i].Name] = exportValue(v)
		}
		doc.Records = append(doc.Records, rec)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// exportValue maps a decoded value to its JSON representation.
func exportValue(v types.Value) interface{} {
	switch v.Kind {
	case types.KindNull:
		return nil
	case types.KindInt:
		return v.Int
	case types.KindFloat:
		return v.Float
	case types.KindBool:
		return v.Bool
	case types.KindBytes:
		return hex.EncodeToString(v.Bytes)
	case types.KindText:
		return v.Str
	default:
		return v.String()
	}
}

func writeCSV(out io.Writer, t *paradox.Table) error {
	w := csv.NewWriter(out)
	if err := w.Write(fieldNames(t.Meta)); err != nil {
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
}

func writeAnalysis(out io.Writer, t *paradox.Table) error {
	schema := &types.Schema{Fields: make([]types.FieldDesc, len(t.Meta.Fields))}
	for i, f := range t.Meta.Fields {
		schema.Fields[i] = types.FieldDesc{Name: f.Name, Type: f.Type, Size: f.Size}
	}
	a := analyzer.New(schema)
	for _, row := range t.Rows {
		a.Observe(row)
	}
	_, err := io.WriteString(out, a.Finish(t.Warnings).Summary())
	return err
}

func fieldNames(meta paradox.Metadata) []string {
	names := make([]string, len(meta.Fields))
	for i, f := range meta.Fields {
		names[i] = f.Name
	}
	return names
}

func orUnknown(s string) string {
	if s == "" {
		return "(unknown)"
	}
	return s
}
