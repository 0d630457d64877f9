package main

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civiclens/enrich-cli/internal/limiter"
)

var enrichConcurrency int

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a single record",
}

var enrichPersonCmd = &cobra.Command{
	Use:   "person <id>",
	Short: "Enrich one person record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return eris.Wrapf(err, "invalid person id %q", args[0])
		}

		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		rec, err := env.Pipeline.EnrichPerson(cmd.Context(), id, resolveConcurrency())
		if err != nil {
			return err
		}

		zap.L().Info("person enriched",
			zap.Int64("id", rec.ID),
			zap.String("name", rec.Name),
			zap.Bool("weak", rec.Weak),
		)
		return nil
	},
}

var enrichBillCmd = &cobra.Command{
	Use:   "bill <id>",
	Short: "Enrich one legislation record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return eris.Wrapf(err, "invalid legislation id %q", args[0])
		}

		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		rec, err := env.Pipeline.EnrichLegislation(cmd.Context(), id, resolveConcurrency())
		if err != nil {
			return err
		}

		zap.L().Info("legislation enriched",
			zap.Int64("id", rec.ID),
			zap.String("name", rec.Name),
		)
		return nil
	},
}

// resolveConcurrency clamps the --concurrency flag, falling back to the
// configured default when the flag is unset.
func resolveConcurrency() int {
	def := cfg.Pipeline.Concurrency
	if enrichConcurrency > 0 {
		return limiter.Resolve(strconv.Itoa(enrichConcurrency), "", def)
	}
	return limiter.Resolve("", "", def)
}

func init() {
	enrichCmd.PersistentFlags().IntVarP(&enrichConcurrency, "concurrency", "c", 0, "fetch concurrency (default from config)")
	enrichCmd.AddCommand(enrichPersonCmd)
	enrichCmd.AddCommand(enrichBillCmd)
	rootCmd.AddCommand(enrichCmd)
}
