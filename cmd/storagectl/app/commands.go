package app

import (
	"github.com/spf13/cobra"

	storage "github.com/Blackdeer1524/StorageCore/src/app"
	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
	"github.com/Blackdeer1524/StorageCore/src/recovery"
)

func run(cmd *cobra.Command, name string, task storage.Task) error {
	return storage.Run(cmd.Context(), &storage.TaskEntrypoint{
		ConfigPath: rootCmd.Options.ConfigPath,
		Name:       name,
		Task:       task,
	})
}

func initRecover() {
	var txns []int32

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Runs recovery for the given transactions in order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids := make([]common.TxnID, 0, len(txns))
			for _, txn := range txns {
				ids = append(ids, common.TxnID(txn))
			}

			return run(cmd, "recover", storage.RecoverTask(ids))
		},
	}
	cmd.Flags().Int32SliceVar(&txns, "txn", nil, "Transaction id to recover, repeatable")
	_ = cmd.MarkFlagRequired("txn")

	rootCmd.AddCommand(cmd)
}

func initDumpLog() {
	var (
		forward bool
		format  string
	)

	cmd := &cobra.Command{
		Use:   "dump-log",
		Short: "Prints every log record, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, "dump-log", storage.DumpLogTask(
				cmd.OutOrStdout(),
				forward,
				recovery.DumpFormat(format),
			))
		},
	}
	cmd.Flags().BoolVar(&forward, "forward", false, "Print oldest records first")
	cmd.Flags().StringVar(&format, "format", string(recovery.FormatText), "Output format: text or json")

	rootCmd.AddCommand(cmd)
}

func initCheckpoint() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "checkpoint",
		Short: "Flushes modified buffers and writes a checkpoint record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, "checkpoint", storage.CheckpointTask(cmd.OutOrStdout()))
		},
	})
}

func initStats() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Prints buffer pool and log statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, "stats", storage.StatsTask(cmd.OutOrStdout()))
		},
	})
}
