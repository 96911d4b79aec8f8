package cmd

import (
	"errors"
	"fmt"

	"github.com/odgs/odgs/internal/schema"
	"github.com/odgs/odgs/protocol"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errValidationFailed = errors.New("validation failed, see output for details")

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check metric and data rule documents",
	Long: `Checks that every standard metric and standard data rule carries its
required fields. Exits non-zero when any issue is found.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	b, err := loadBundle(true)
	if err != nil {
		return err
	}

	rep, err := schema.ValidateBundle(b)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, formatReport(rep, palette(resolveColor(colorFlag, out))))

	if !rep.OK() {
		logger.Warn("validation failed", zap.Int("issues", len(rep.Issues)))
		return errValidationFailed
	}

	if metrics, err := schema.DecodeMetrics(b.MustGet(protocol.StandardMetrics)); err == nil {
		domains := make(map[string]int)
		for _, m := range metrics {
			domains[m.Domain]++
		}
		logger.Debug("metrics by domain", zap.Any("domains", domains))
	}
	logger.Info("validation passed",
		zap.Int("metrics", rep.Metrics),
		zap.Int("data_rules", rep.DataRules))
	return nil
}
