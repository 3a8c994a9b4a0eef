package cli

import (
	"github.com/spf13/cobra"
)

type RunOptions struct {
	ConfigFile      string
	ReplicationFile string
	PipelineFile    string
	Debug           bool

	SrcConn   string
	SrcStream string
	TgtConn   string
	TgtObject string
	Mode      string
	Select    []string
	Where     string
	Limit     int
	Stdout    string

	Streams []string
}

func NewRunCmd() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a transfer, replication or pipeline",
		RunE: func(c *cobra.Command, args []string) error {
			return runRun(c, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Path to an ad-hoc run config file")
	cmd.Flags().StringVarP(&opts.ReplicationFile, "replication", "r", "", "Path to a replication file")
	cmd.Flags().StringVarP(&opts.PipelineFile, "pipeline", "p", "", "Path to a pipeline file")
	cmd.Flags().BoolVarP(&opts.Debug, "debug", "d", false, "Enable debug logging")

	cmd.Flags().StringVar(&opts.SrcConn, "src-conn", "", "Source connection name")
	cmd.Flags().StringVar(&opts.SrcStream, "src-stream", "", "Source stream (table, file path or query)")
	cmd.Flags().StringVar(&opts.TgtConn, "tgt-conn", "", "Target connection name")
	cmd.Flags().StringVar(&opts.TgtObject, "tgt-object", "", "Target object (table or file path)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "Transfer mode (full-refresh, incremental, truncate, snapshot, backfill)")
	cmd.Flags().StringSliceVar(&opts.Select, "select", nil, "Columns to select")
	cmd.Flags().StringVar(&opts.Where, "where", "", "Filter expression applied at the source")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of records to transfer")
	cmd.Flags().StringVar(&opts.Stdout, "stdout", "", "Stream records to stdout in the given format (csv)")

	cmd.Flags().StringSliceVar(&opts.Streams, "streams", nil, "Restrict a replication to the named streams")

	return cmd
}
