package app

import (
	"fmt"
	"strings"

	"storygraph/internal/gateway/config"
	"storygraph/internal/gateway/repository/artifact"
	"storygraph/internal/gateway/repository/storystore"
)

type gatewayStores struct {
	stories  *storystore.Store
	exporter *artifact.S3Store
	// summary names the resolved backends for the startup log line.
	summary string
}

func initStores(cfg *config.Config) (*gatewayStores, error) {
	stories := storystore.NewFromOptions(cfg.Store.PostgresDSN, cfg.Store.Path)
	summary := "store=file:" + cfg.Store.Path
	if strings.TrimSpace(cfg.Store.PostgresDSN) != "" {
		summary = "store=postgres"
	}

	exporter, err := initExporter(cfg)
	if err != nil {
		return nil, err
	}
	if exporter != nil {
		summary += " export=s3:" + cfg.Artifact.Bucket
	} else {
		summary += " export=off"
	}

	return &gatewayStores{
		stories:  stories,
		exporter: exporter,
		summary:  summary,
	}, nil
}

// initExporter builds the S3 exporter when an endpoint is configured.
// A missing endpoint disables exporting; incomplete credentials are a
// startup error rather than a silent no-op.
func initExporter(cfg *config.Config) (*artifact.S3Store, error) {
	if !cfg.Artifact.Enabled {
		return nil, nil
	}
	exporter, err := artifact.NewS3Store(artifact.S3Config{
		Endpoint:  cfg.Artifact.Endpoint,
		Region:    cfg.Artifact.Region,
		AccessKey: cfg.Artifact.AccessKey,
		SecretKey: cfg.Artifact.SecretKey,
		Bucket:    cfg.Artifact.Bucket,
		UseSSL:    cfg.Artifact.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact s3 store: %w", err)
	}
	return exporter, nil
}
