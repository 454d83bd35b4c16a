package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/krishivue/agri-api/internal/config"
	"github.com/krishivue/agri-api/internal/handlers"
	"github.com/krishivue/agri-api/internal/imaging"
	"github.com/krishivue/agri-api/internal/metrics"
	"github.com/krishivue/agri-api/internal/model"
	"github.com/krishivue/agri-api/internal/predict"
)

func newServeCmd(base *config.Config) *cobra.Command {
	cfg := *base

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve disease and crop predictions from in-process models",
		Example: `  # Start on the default port 8000
  krishivue serve

  # Custom model location
  krishivue serve --disease-model ./models/disease/model.onnx --onnxruntime-lib /usr/lib/libonnxruntime.so`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := model.InitRuntime(cfg.OnnxLibraryPath); err != nil {
				return err
			}
			defer func() {
				if err := model.DestroyRuntime(); err != nil {
					slog.Error("Failed to destroy ONNX environment", "err", err)
				}
			}()

			diseaseMeta, err := loadMetadata(cfg.DiseaseMetadataPath)
			if err != nil {
				return err
			}
			diseaseLabels := diseaseMeta.Labels(model.DiseaseClasses)

			slog.Info("Loading model", "path", cfg.DiseaseModelPath, "classes", diseaseLabels)
			server, err := model.NewServer(cfg.DiseaseModelPath, diseaseMeta, diseaseLabels)
			if err != nil {
				return fmt.Errorf("failed to initialize disease model: %w", err)
			}
			defer server.Close()

			cropMeta, err := loadMetadata(cfg.CropMetadataPath)
			if err != nil {
				return err
			}
			cropLabels := cropMeta.Labels(model.CropNames)

			slog.Info("Loading model", "path", cfg.CropModelPath, "classes", len(cropLabels))
			classifier, err := model.NewClassifier(cfg.CropModelPath, cropMeta, cropLabels)
			if err != nil {
				return fmt.Errorf("failed to initialize crop model: %w", err)
			}
			defer classifier.Close()

			imageSize := cfg.ImageSize
			if imageSize == 0 && diseaseMeta.ImageSize > 0 {
				imageSize = uint(diseaseMeta.ImageSize)
			}

			m := metrics.New()
			disease := predict.NewDiseaseService(imaging.NewDecoder(imageSize), m.WrapInvoker("disease", server), diseaseLabels)
			crop := predict.NewCropService(m.WrapClassifier("crop", classifier), cropLabels)
			h := handlers.NewHandler(disease, crop, cfg.MaxUploadBytes)

			return listenAndServe(cmd.Context(), cfg.Addr(), handlers.NewRouter(h.InProcessRoutes(), m, cfg.AllowedOrigins))
		},
	}

	addCommonFlags(cmd, &cfg, 8000)
	cmd.Flags().StringVar(&cfg.OnnxLibraryPath, "onnxruntime-lib", cfg.OnnxLibraryPath, "Path to the onnxruntime shared library")
	cmd.Flags().StringVar(&cfg.DiseaseModelPath, "disease-model", cfg.DiseaseModelPath, "Disease classification ONNX model")
	cmd.Flags().StringVar(&cfg.DiseaseMetadataPath, "disease-metadata", cfg.DiseaseMetadataPath, "Disease model metadata (JSON or YAML, empty for defaults)")
	cmd.Flags().StringVar(&cfg.CropModelPath, "crop-model", cfg.CropModelPath, "Crop recommendation ONNX model")
	cmd.Flags().StringVar(&cfg.CropMetadataPath, "crop-metadata", cfg.CropMetadataPath, "Crop model metadata (JSON or YAML, empty for defaults)")

	return cmd
}

func loadMetadata(path string) (model.Metadata, error) {
	if path == "" {
		return model.Metadata{}, nil
	}
	return model.LoadMetadata(path)
}
