package cli

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ferrydata/ferry/internal/engine"
	"github.com/ferrydata/ferry/internal/steps"
	"github.com/ferrydata/ferry/pkg/logger"
	"github.com/ferrydata/ferry/pkg/models"
	"github.com/ferrydata/ferry/pkg/utils"
)

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	logger.SetDebug(opts.Debug)

	chosen := 0
	for _, f := range []string{opts.ConfigFile, opts.ReplicationFile, opts.PipelineFile} {
		if f != "" {
			chosen++
		}
	}
	if chosen > 1 {
		return &models.ConfigError{Reason: "only one of --config, --replication and --pipeline may be given"}
	}

	switch {
	case opts.PipelineFile != "":
		return runPipeline(cmd, opts)
	case opts.ReplicationFile != "":
		return runReplication(cmd, opts)
	default:
		return runTransfer(cmd, opts)
	}
}

func runPipeline(cmd *cobra.Command, opts *RunOptions) error {
	pipeline, err := models.LoadPipeline(opts.PipelineFile)
	if err != nil {
		return err
	}
	pipeline.Debug = opts.Debug

	runner := steps.NewRunner(nil)
	results, err := runner.Run(cmd.Context(), pipeline)
	for _, res := range results {
		logger.Info("step %d (%s): %s", res.Index, res.Type, res.Status)
	}
	return err
}

func runReplication(cmd *cobra.Command, opts *RunOptions) error {
	rep, err := models.LoadReplication(opts.ReplicationFile)
	if err != nil {
		return err
	}
	rep.Debug = opts.Debug
	if len(opts.Streams) > 0 {
		if err := rep.SelectStreams(opts.Streams); err != nil {
			return err
		}
		// The document diverged from the file on disk; force a temp
		// artifact so the engine sees the narrowed config.
		rep.FilePath = ""
	}

	res, err := engine.RunReplication(cmd.Context(), rep, nil)
	if err != nil {
		return err
	}
	for _, line := range res.Output {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

func runTransfer(cmd *cobra.Command, opts *RunOptions) error {
	var spec *models.RunSpec
	if opts.ConfigFile != "" {
		loaded, err := models.LoadRunSpec(opts.ConfigFile)
		if err != nil {
			return err
		}
		spec = loaded
	} else {
		spec = &models.RunSpec{
			Source: models.Source{Conn: opts.SrcConn, Stream: opts.SrcStream},
			Target: models.Target{Conn: opts.TgtConn, Object: opts.TgtObject},
			Mode:   models.Mode(opts.Mode),
			Select: opts.Select,
			Where:  opts.Where,
			Limit:  opts.Limit,
		}
	}
	spec.Debug = opts.Debug

	if opts.Stdout != "" {
		return streamTransfer(cmd, spec, models.Format(opts.Stdout))
	}

	res, err := engine.Run(cmd.Context(), spec)
	if err != nil {
		return err
	}
	for _, line := range res.Output {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

// streamTransfer pipes engine records to stdout as CSV, writing the header
// once from the first record's column order.
func streamTransfer(cmd *cobra.Command, spec *models.RunSpec, format models.Format) error {
	if format != models.FormatCSV {
		return &models.ConfigError{Reason: fmt.Sprintf("unsupported stdout format %q", format)}
	}

	records, err := engine.Stream(cmd.Context(), spec)
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	wroteHeader := false
	for rec, err := range records {
		if err != nil {
			return err
		}
		if !wroteHeader {
			if err := w.Write(rec.Columns); err != nil {
				return err
			}
			wroteHeader = true
		}
		row := make([]string, len(rec.Columns))
		for i, col := range rec.Columns {
			row[i] = utils.ToString(rec.Values[col])
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
