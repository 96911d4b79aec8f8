package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/odgs/odgs/bundle"
	"github.com/spf13/cobra"
)

var (
	showProtocol bool
	showPath     string
)

var showCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print a document",
	Long: `Prints one bundle document as indented JSON.

--path selects a value inside the document: dot-separated object keys and
array indexes, e.g. --path 0.calculation_logic.abstract. A backslash escapes
the next character, so --path 'mappings.dbo\.fact_sales' reaches the key
"dbo.fact_sales".`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showProtocol, "protocol", false, "Use the protocol sub-bundle")
	showCmd.Flags().StringVar(&showPath, "path", "", "Dot-separated path inside the document (\\. for a literal dot)")
}

func runShow(cmd *cobra.Command, args []string) error {
	b, err := loadBundle(showProtocol)
	if err != nil {
		return err
	}

	key := bundle.Key(args[0])
	doc, ok := b.Get(key)
	if !ok {
		return fmt.Errorf("unknown key %q (want one of: %s)", key, joinKeys(b.Keys()))
	}

	var path []string
	if showPath != "" {
		path = splitPath(showPath)
	}
	v, ok := doc.Lookup(path...)
	if !ok {
		return fmt.Errorf("path %q not found in %s", showPath, key)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinKeys(keys []bundle.Key) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}

// splitPath splits a --path value on dots. A backslash escapes the next
// character.
func splitPath(p string) []string {
	var (
		parts   []string
		cur     strings.Builder
		escaped bool
	)
	for _, r := range p {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '.':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if escaped {
		cur.WriteRune('\\')
	}
	return append(parts, cur.String())
}
