package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"gopkg.in/yaml.v3"
)

// Terminal palette per level, in the spirit of the web colour tokens.
var levelColors = map[int]*color.Color{
	1: color.New(color.FgWhite),
	2: color.New(color.FgCyan),
	3: color.New(color.FgBlue, color.Bold),
	4: color.New(color.FgYellow, color.Bold),
	5: color.New(color.FgMagenta, color.Bold),
}

// levelLabel renders a level name in its colour.
func levelLabel(level int, name string) string {
	if c, ok := levelColors[level]; ok {
		return c.Sprint(name)
	}
	return name
}

// write dispatches on format. Structured formats encode v; table calls render.
func write(w io.Writer, format string, v any, render func(io.Writer) error) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
		return nil
	case "yaml":
		if err := writeYAML(w, v); err != nil {
			return fmt.Errorf("error writing YAML output: %w", err)
		}
		return nil
	default:
		return render(w)
	}
}

// writeYAML goes through JSON so field names and order match the json
// output, then drops the JSON flow and quoting styles.
func writeYAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	blockStyle(&doc)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// blockStyle clears styles recursively; the encoder still quotes strings
// that would otherwise read back as another type.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// renderTable writes headers and rows with right-aligned cells.
func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
