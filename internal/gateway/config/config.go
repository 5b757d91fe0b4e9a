package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"storygraph/internal/topology"
)

type Config struct {
	Port  string
	Env   string
	Store StoreConfig
	// DefaultSpec is the service-wide topology default, loaded from the
	// structured config file's dag block and validated at startup. It is
	// used whenever a request carries neither a preset nor a custom spec.
	DefaultSpec topology.Spec
	Artifact    ArtifactConfig
}

type StoreConfig struct {
	// PostgresDSN selects the database backend when set; otherwise stories
	// are kept in the JSON file at Path.
	PostgresDSN string
	Path        string
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8080", "server port")
	configFile := flag.String("config", "", "path to the service config file")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	path := firstNonEmpty(strings.TrimSpace(*configFile), strings.TrimSpace(os.Getenv("STORYGRAPH_CONFIG")), "storygraph.hcl")
	spec, err := loadDefaultSpec(path)
	if err != nil {
		return nil, err
	}
	if err := topology.Validate(spec); err != nil {
		return nil, fmt.Errorf("default dag config in %s: %w", path, err)
	}

	return &Config{
		Port:        *port,
		Env:         env,
		Store:       loadStoreConfig(),
		DefaultSpec: spec,
		Artifact:    loadArtifactConfig(env),
	}, nil
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		PostgresDSN: strings.TrimSpace(os.Getenv("STORY_STORE_PG_DSN")),
		Path:        firstNonEmpty(strings.TrimSpace(os.Getenv("STORY_STORE_PATH")), "tmp/story_dags.json"),
	}
}

func loadArtifactConfig(env string) ArtifactConfig {
	endpoint := resolveArtifactEndpoint(env)
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "storygraph-artifacts"),
		UseSSL:    resolveArtifactUseSSL(env),
	}
}

func resolveArtifactEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
}

func resolveArtifactUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARTIFACT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
