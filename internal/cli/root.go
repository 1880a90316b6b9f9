// Package cli implements the notemaker command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/MimeLyc/video-notemaker/pkg/log"
)

var (
	configFile string
	logLevel   string
	logFile    string

	fileLogger *log.FileLogger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "notemaker",
	Short: "Turn videos into structured notes",
	Long: `notemaker extracts transcripts from videos (captions first, audio
transcription as fallback), caches them, and generates structured notes
with summaries, key points, and review questions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := log.ParseLevel(logLevel)
		if logFile != "" {
			fl, err := log.InitFileLogger(logFile, level)
			if err != nil {
				return err
			}
			fileLogger = fl
			return nil
		}
		log.InitLogger(level)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if fileLogger != nil {
		fileLogger.Close()
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stdout")
}
