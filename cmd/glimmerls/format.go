package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
)

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as
// a CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{Command: command, Error: err.Error()}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

func formatLocationsText(w io.Writer, locs []CLILocation) {
	for _, loc := range locs {
		fmt.Fprintf(w, "%s:%d:%d\t%s\n", loc.File, loc.Line, loc.Col, loc.Kind)
	}
}

func formatImportsText(w io.Writer, imports []CLIImport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODULE\tALIAS\tUNRESOLVED\tEXPOSED")
	for _, imp := range imports {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%v\n", imp.SourceModule, imp.Alias, imp.Unresolved, imp.Exposed)
	}
	tw.Flush()
}

func formatEmptyTypesText(w io.Writer, types []CLIEmptyType) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMARKDOWN")
	for _, t := range types {
		fmt.Fprintf(tw, "%s\t%s\n", t.Name, t.Markdown)
	}
	tw.Flush()
}

// outputResultText dispatches to the appropriate text formatter based on
// the result type, mirroring cmd/canopy's own per-type switch.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)

	switch v := result.Results.(type) {
	case CLILocation:
		formatLocationsText(w, []CLILocation{v})
	case []CLILocation:
		formatLocationsText(w, v)
	case []CLIImport:
		formatImportsText(w, v)
	case []CLIEmptyType:
		formatEmptyTypesText(w, v)
	case map[string]any:
		for k, val := range v {
			fmt.Fprintf(w, "%s: %v\n", k, val)
		}
	case nil:
		// No output for nil results (e.g. definition with no match).
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}
	return nil
}

func resultLen(v any) int {
	switch r := v.(type) {
	case []CLILocation:
		return len(r)
	case []CLIImport:
		return len(r)
	case []CLIEmptyType:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}
