package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var digestProtocol bool

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Print the bundle digest",
	Long:  "Prints the SHA-256 digest identifying the bundle's content. Whitespace in the source files does not affect it.",
	Args:  cobra.NoArgs,
	RunE:  runDigest,
}

func init() {
	digestCmd.Flags().BoolVar(&digestProtocol, "protocol", false, "Use the protocol sub-bundle")
}

func runDigest(cmd *cobra.Command, args []string) error {
	b, err := loadBundle(digestProtocol)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), b.Digest())
	return nil
}
