package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/halveck/nrestool/internal/archiver"
	"github.com/halveck/nrestool/internal/config"
	"github.com/halveck/nrestool/internal/fsutil"
	"github.com/halveck/nrestool/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "nrestool",
	Short: "Create and unpack Parkan NRes archives (lib, rlb, msh)",
}

var archiveCmd = &cobra.Command{
	Use:   "archive [patterns...]",
	Short: "Pack files into an NRes archive",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runArchive,
}

var unarchiveCmd = &cobra.Command{
	Use:   "unarchive [patterns...]",
	Short: "Unpack NRes archive(s) into a directory",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUnarchive,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")

	// i/o
	rootCmd.PersistentFlags().StringP("output-directory", "d", ".", "directory to write output into")
	rootCmd.PersistentFlags().BoolP("dry-run", "n", false, "validate and compute everything without writing")
	rootCmd.PersistentFlags().BoolP("force", "f", false, "overwrite existing files")

	// other opts
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolP("silent", "s", false, "errors only")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-output-dir", "", "directory to write log files (if set, logs are written to both stdout and file)")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "silent")

	archiveCmd.Flags().StringP("output", "o", "", "path of the archive to create (default archive.nres in the output directory)")

	viper.BindPFlag("output_directory", rootCmd.PersistentFlags().Lookup("output-directory"))
	viper.BindPFlag("dry_run", rootCmd.PersistentFlags().Lookup("dry-run"))
	viper.BindPFlag("force", rootCmd.PersistentFlags().Lookup("force"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("silent", rootCmd.PersistentFlags().Lookup("silent"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_output_dir", rootCmd.PersistentFlags().Lookup("log-output-dir"))
	viper.BindPFlag("output", archiveCmd.Flags().Lookup("output"))

	rootCmd.AddCommand(archiveCmd, unarchiveCmd)
}

// initConfig reads in config file and environment variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "nrestool"))
		}
		viper.AddConfigPath("/etc/nrestool")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("NRESTOOL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setup unmarshals the resolved config and configures logging; shared
// by both subcommands
func setup() error {
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	err := logging.Setup(logging.Options{
		Level:   cfg.LogLevel,
		Verbose: cfg.Verbose,
		Silent:  cfg.Silent,
		FileDir: cfg.LogOutputDir,
	})
	if err != nil {
		return fmt.Errorf("could not set up logging: %w", err)
	}

	if cfg.DryRun {
		slog.Info("dry-run mode: no changes will be made")
	}
	return nil
}

// runArchive packs every file matched by the given patterns into a
// single archive
func runArchive(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}

	fsys := afero.NewOsFs()

	inputs, err := fsutil.CollectFiles(fsys, args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no files matched %v", args)
	}

	outPath := cfg.Output
	if outPath == "" {
		outPath = filepath.Join(cfg.OutputDir, "archive.nres")
	}

	opts := archiver.Options{DryRun: cfg.DryRun, Force: cfg.Force}
	if err := archiver.Build(fsys, inputs, outPath, opts, slog.Default()); err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	return nil
}

// runUnarchive unpacks every archive matched by the given patterns,
// each into its own subdirectory of the output directory. One bad
// archive is reported and the rest are still processed.
func runUnarchive(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}

	fsys := afero.NewOsFs()

	archives, err := fsutil.CollectFiles(fsys, args)
	if err != nil {
		return err
	}
	if len(archives) == 0 {
		return fmt.Errorf("no archives matched %v", args)
	}

	opts := archiver.Options{DryRun: cfg.DryRun, Force: cfg.Force}

	failed := 0
	for _, archivePath := range archives {
		destDir := filepath.Join(cfg.OutputDir, archiveStem(archivePath))

		report, err := archiver.Unarchive(fsys, archivePath, destDir, opts, slog.Default())
		if err != nil {
			slog.Error(fmt.Sprintf("failed to unarchive %s", archivePath), "error", err)
			failed++
			continue
		}

		slog.Info("unarchived",
			"archive", archivePath,
			"extracted", report.Extracted(),
			"failed", report.Failed(),
		)
		if report.Failed() > 0 {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d archives had failures", failed, len(archives))
	}
	return nil
}

// archiveStem returns the archive file name without its extension
func archiveStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
