package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/krishivue/agri-api/internal/config"
	"github.com/krishivue/agri-api/internal/handlers"
	"github.com/krishivue/agri-api/internal/imaging"
	"github.com/krishivue/agri-api/internal/metrics"
	"github.com/krishivue/agri-api/internal/model"
	"github.com/krishivue/agri-api/internal/predict"
	"github.com/krishivue/agri-api/internal/serving"
)

func newProxyCmd(base *config.Config) *cobra.Command {
	cfg := *base

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Serve disease predictions from a TensorFlow Serving endpoint",
		Long: `Starts the proxy variant on the specified port. Uploaded images are decoded
and forwarded to TensorFlow Serving as {"instances": ...}; the first entry of
"predictions" is mapped to a disease class.`,
		Example: `  # Start on the default port 8001 against a local TF Serving
  krishivue proxy

  # Different model server
  krishivue proxy --serving-url http://tfs:8501/v1/models/krishiVue:predict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := serving.New(cfg.ServingURL, cfg.ServingTimeout, len(model.DiseaseClasses))

			if cfg.ServingReadyTimeout > 0 {
				slog.Info("Waiting for model server", "url", client.StatusURL(), "timeout", cfg.ServingReadyTimeout)
				if err := client.WaitReady(cmd.Context(), cfg.ServingReadyTimeout); err != nil {
					slog.Warn("Model server not ready, starting anyway", "err", err)
				}
			}

			m := metrics.New()
			disease := predict.NewDiseaseService(imaging.NewDecoder(cfg.ImageSize), m.WrapInvoker("disease_remote", client), model.DiseaseClasses)
			h := handlers.NewHandler(disease, nil, cfg.MaxUploadBytes)

			return listenAndServe(cmd.Context(), cfg.Addr(), handlers.NewRouter(h.ProxyRoutes(), m, cfg.AllowedOrigins))
		},
	}

	addCommonFlags(cmd, &cfg, 8001)
	cmd.Flags().StringVar(&cfg.ServingURL, "serving-url", cfg.ServingURL, "TensorFlow Serving predict URL")
	cmd.Flags().DurationVar(&cfg.ServingTimeout, "serving-timeout", cfg.ServingTimeout, "Timeout for each prediction request to the model server")
	cmd.Flags().DurationVar(&cfg.ServingReadyTimeout, "serving-ready-timeout", cfg.ServingReadyTimeout, "How long to wait for the model server at startup (0 = skip)")

	return cmd
}
