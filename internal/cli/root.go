package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/krishivue/agri-api/internal/config"
)

func NewRootCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "krishivue",
		Short: "Crop disease detection and crop recommendation API",
		Long: `KrishiVue serves two prediction pipelines over HTTP:

  serve  loads the disease CNN and the crop classifier in-process (ONNX)
  proxy  forwards disease predictions to a TensorFlow Serving endpoint`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger(cfg)
		},
	}

	cmd.AddCommand(newServeCmd(cfg))
	cmd.AddCommand(newProxyCmd(cfg))

	return cmd
}

func setupLogger(cfg *config.Config) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if cfg.Development() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)
}

// addCommonFlags binds the flags both processes share onto cfg.
func addCommonFlags(cmd *cobra.Command, cfg *config.Config, defaultPort int) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	cmd.Flags().StringVar(&cfg.Host, "host", cfg.Host, "Host to listen on")
	cmd.Flags().IntVarP(&cfg.Port, "port", "p", cfg.Port, "Port to listen on")
	cmd.Flags().StringSliceVar(&cfg.AllowedOrigins, "cors-origin", cfg.AllowedOrigins, "Allowed CORS origin (repeatable, * for any)")
	cmd.Flags().Int64Var(&cfg.MaxUploadBytes, "max-upload-bytes", cfg.MaxUploadBytes, "Reject uploads larger than this (0 = unlimited)")
	cmd.Flags().UintVar(&cfg.ImageSize, "image-size", cfg.ImageSize, "Resize uploads to this square size before inference (0 = keep)")
}
