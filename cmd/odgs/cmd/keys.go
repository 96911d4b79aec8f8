package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	keysProtocol bool
	keysJSON     bool
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List bundle keys",
	Long:  "Lists the bundle's document keys with each document's kind and top-level size.",
	Args:  cobra.NoArgs,
	RunE:  runKeys,
}

func init() {
	keysCmd.Flags().BoolVar(&keysProtocol, "protocol", false, "Use the protocol sub-bundle")
	keysCmd.Flags().BoolVar(&keysJSON, "json", false, "Output as JSON")
}

func runKeys(cmd *cobra.Command, args []string) error {
	b, err := loadBundle(keysProtocol)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if keysJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(b.Keys())
	}

	fmt.Fprint(out, formatKeys(b, palette(resolveColor(colorFlag, out))))
	return nil
}
