package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Skryldev/battlegw/application/battlegen"
	"github.com/Skryldev/battlegw/application/pairsampler"
	"github.com/Skryldev/battlegw/application/promptpipeline"
	"github.com/Skryldev/battlegw/domain/model"
	"github.com/Skryldev/battlegw/domain/ports"
	"github.com/Skryldev/battlegw/httpapi"
	"github.com/Skryldev/battlegw/infrastructure/audioprobe"
	"github.com/Skryldev/battlegw/infrastructure/bucket"
	"github.com/Skryldev/battlegw/infrastructure/chatclient"
	"github.com/Skryldev/battlegw/infrastructure/storage"
	"github.com/Skryldev/battlegw/infrastructure/workerclient"
	"github.com/Skryldev/battlegw/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the gateway HTTP server",
	RunE:  runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.String("host", "0.0.0.0", "bind host")
	flags.Int("port", 8080, "bind port")
	flags.String("systems-registry", "", "path to the systems registry YAML file (takes precedence over --systems when both are set)")
	flags.String("systems", "", "comma-separated \"system_tag:variant_tag[:port]\" entries; a flag-only fallback to --systems-registry for deployments that don't want to author a YAML file")
	flags.StringSlice("pair-weight", nil, "a weighted system pair, repeatable: \"tagA:variantA,tagB:variantB=weight\"")
	flags.String("weights", "", "comma-separated \"A_tag:A_variant/B_tag:B_variant/weight\" entries; a fallback to --pair-weight")
	flags.StringSlice("worker-url", nil, "explicit worker URL override, repeatable: \"tag:variant=http://host:port\"")
	flags.String("systems-base-url", "", "base URL (scheme+host, no port) used to derive a worker URL for any system without a --worker-url override or a --systems-supplied port, via each system's default port")
	flags.String("bucket-audio-dir", "", "local directory backing the audio bucket (ignored when --bucket-audio-gcs is set)")
	flags.String("bucket-audio-gcs", "", "GCS bucket name backing the audio bucket")
	flags.String("bucket-metadata-dir", "", "local directory backing the metadata bucket (ignored when --bucket-metadata-gcs is set)")
	flags.String("bucket-metadata-gcs", "", "GCS bucket name backing the metadata bucket")
	flags.String("public-base-url", "", "public base URL audio objects are served from when using a local audio bucket")
	flags.String("prebaked-path", "", "path to the prebaked-prompt JSON file used by /prebaked and /health_check")
	flags.String("route-config", "", "prompt-routing template config (reserved; accepted but not read by serve — routing is enabled by OPENAI_API_KEY)")
	flags.Float64("flakiness", 0, "probability in [0,1] that any request randomly fails, for chaos testing")
	flags.Int("battle-cache-size", 0, "bounded LRU battle cache size; 0 means unbounded")
	flags.Int("num-retries", 2, "number of retries per worker generate call, beyond the first attempt")
	flags.String("openai-model", "", "OpenAI chat model used for prompt routing/lyrics (defaults to gpt-4o)")
	flags.String("ffprobe-path", "", "path to the ffprobe binary (defaults to PATH lookup)")
	flags.String("gateway-version", "", "gateway version string attached to every generated battle")

	for _, name := range []string{
		"host", "port", "systems-registry", "systems", "pair-weight", "weights", "worker-url", "systems-base-url",
		"bucket-audio-dir", "bucket-audio-gcs", "bucket-metadata-dir", "bucket-metadata-gcs",
		"public-base-url", "prebaked-path", "route-config", "flakiness", "battle-cache-size",
		"num-retries", "openai-model", "ffprobe-path", "gateway-version",
	} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

// pairKeyFromTags parses "tag:variant" into a model.SystemKey.
func pairKeyFromTags(s string) (model.SystemKey, error) {
	return model.ParseSystemKey(strings.TrimSpace(s))
}

func parsePairWeights(entries []string) (map[pairsampler.PairKey]float64, error) {
	weights := make(map[pairsampler.PairKey]float64, len(entries))
	for _, entry := range entries {
		pairPart, weightPart, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("--pair-weight %q: expected \"sysA,sysB=weight\"", entry)
		}
		keys := strings.Split(pairPart, ",")
		if len(keys) != 2 {
			return nil, fmt.Errorf("--pair-weight %q: expected exactly two system keys", entry)
		}
		a, err := pairKeyFromTags(keys[0])
		if err != nil {
			return nil, fmt.Errorf("--pair-weight %q: %w", entry, err)
		}
		b, err := pairKeyFromTags(keys[1])
		if err != nil {
			return nil, fmt.Errorf("--pair-weight %q: %w", entry, err)
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(weightPart), 64)
		if err != nil {
			return nil, fmt.Errorf("--pair-weight %q: invalid weight: %w", entry, err)
		}
		weights[pairsampler.PairKey{A: a, B: b}] = weight
	}
	return weights, nil
}

// parseSystemsFlag parses the literal --systems contract from the
// gateway's external-interfaces surface: comma-separated
// "system_tag:variant_tag[:port]" entries. Each produces a minimal
// SystemMetadata (no display metadata, OPEN access) and, when a port is
// given, a worker URL port override -- a flag-only alternative to
// authoring a --systems-registry YAML file.
func parseSystemsFlag(s string) (map[model.SystemKey]model.SystemMetadata, map[model.SystemKey]string, error) {
	systems := make(map[model.SystemKey]model.SystemMetadata)
	portOverrides := make(map[model.SystemKey]string)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, nil, fmt.Errorf("--systems %q: expected \"tag:variant[:port]\"", entry)
		}
		key, err := model.NewSystemKey(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, nil, fmt.Errorf("--systems %q: %w", entry, err)
		}
		systems[key] = model.NewSystemMetadata(model.SystemMetadata{Key: key, Access: model.SystemAccessOpen})
		if len(parts) == 3 {
			portOverrides[key] = strings.TrimSpace(parts[2])
		}
	}
	return systems, portOverrides, nil
}

// parseWeightsFlag parses the literal --weights contract: comma-separated
// "A_tag:A_variant/B_tag:B_variant/weight" entries, a fallback to the
// repeatable --pair-weight flag.
func parseWeightsFlag(s string) (map[pairsampler.PairKey]float64, error) {
	weights := make(map[pairsampler.PairKey]float64)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		segs := strings.Split(entry, "/")
		if len(segs) != 3 {
			return nil, fmt.Errorf("--weights %q: expected \"A_tag:A_variant/B_tag:B_variant/weight\"", entry)
		}
		a, err := pairKeyFromTags(segs[0])
		if err != nil {
			return nil, fmt.Errorf("--weights %q: %w", entry, err)
		}
		b, err := pairKeyFromTags(segs[1])
		if err != nil {
			return nil, fmt.Errorf("--weights %q: %w", entry, err)
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(segs[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("--weights %q: invalid weight: %w", entry, err)
		}
		weights[pairsampler.PairKey{A: a, B: b}] = weight
	}
	return weights, nil
}

func parseWorkerURLs(entries []string) (map[model.SystemKey]string, error) {
	urls := make(map[model.SystemKey]string, len(entries))
	for _, entry := range entries {
		keyPart, urlPart, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("--worker-url %q: expected \"tag:variant=url\"", entry)
		}
		key, err := pairKeyFromTags(keyPart)
		if err != nil {
			return nil, fmt.Errorf("--worker-url %q: %w", entry, err)
		}
		urls[key] = strings.TrimSpace(urlPart)
	}
	return urls, nil
}

// resolveWorkerURLs fills in any system missing from overrides with a
// baseURL + model.DefaultSystemPort-derived URL, matching the original
// deployment's convention of one worker container per system on a
// deterministic port.
func resolveWorkerURLs(systems map[model.SystemKey]model.SystemMetadata, overrides map[model.SystemKey]string, baseURL string) (map[model.SystemKey]string, error) {
	urls := make(map[model.SystemKey]string, len(systems))
	for key := range systems {
		if url, ok := overrides[key]; ok {
			urls[key] = url
			continue
		}
		if baseURL == "" {
			return nil, fmt.Errorf("no --worker-url override for system %s and --systems-base-url is empty", key)
		}
		urls[key] = fmt.Sprintf("%s:%d", strings.TrimRight(baseURL, "/"), model.DefaultSystemPort(key))
	}
	return urls, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	log, err := logger.New(debug)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer log.Sync()

	registryPath := viper.GetString("systems-registry")
	systemsFlag := viper.GetString("systems")
	var systems map[model.SystemKey]model.SystemMetadata
	var systemsPorts map[model.SystemKey]string
	switch {
	case registryPath != "":
		systems, err = model.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("loading systems registry: %w", err)
		}
	case systemsFlag != "":
		systems, systemsPorts, err = parseSystemsFlag(systemsFlag)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("one of --systems-registry or --systems is required")
	}

	weights, err := parsePairWeights(viper.GetStringSlice("pair-weight"))
	if err != nil {
		return err
	}
	if weightsFlag := viper.GetString("weights"); weightsFlag != "" {
		flagWeights, err := parseWeightsFlag(weightsFlag)
		if err != nil {
			return err
		}
		for k, v := range flagWeights {
			weights[k] = v
		}
	}
	sampler, err := pairsampler.NewSampler(systems, weights, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		return fmt.Errorf("constructing pair sampler: %w", err)
	}

	overrides, err := parseWorkerURLs(viper.GetStringSlice("worker-url"))
	if err != nil {
		return err
	}
	baseURL := viper.GetString("systems-base-url")
	for key, port := range systemsPorts {
		if _, ok := overrides[key]; ok {
			continue
		}
		if baseURL == "" {
			return fmt.Errorf("--systems entry for %s gave a port but --systems-base-url is empty", key)
		}
		overrides[key] = fmt.Sprintf("%s:%s", strings.TrimRight(baseURL, "/"), port)
	}
	workerURLs, err := resolveWorkerURLs(systems, overrides, baseURL)
	if err != nil {
		return err
	}

	storageProvider := storage.NewLocalStorage()
	prober, err := audioprobe.New(viper.GetString("ffprobe-path"), storageProvider)
	if err != nil {
		return fmt.Errorf("initializing audio prober: %w", err)
	}
	worker := workerclient.New(prober)

	pipeline, err := buildPipeline(viper.GetString("openai-model"))
	if err != nil {
		return err
	}

	gen := battlegen.New(pipeline, sampler, worker, battlegen.NewStaticSystemURLs(workerURLs), viper.GetInt("num-retries"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	audioBucket, err := buildBucket(ctx, viper.GetString("bucket-audio-dir"), viper.GetString("bucket-audio-gcs"), viper.GetString("public-base-url"))
	if err != nil {
		return fmt.Errorf("initializing audio bucket: %w", err)
	}
	metadataBucket, err := buildBucket(ctx, viper.GetString("bucket-metadata-dir"), viper.GetString("bucket-metadata-gcs"), "")
	if err != nil {
		return fmt.Errorf("initializing metadata bucket: %w", err)
	}

	server := httpapi.NewServer(httpapi.Config{
		Generator:       gen,
		AudioBucket:     audioBucket,
		MetadataBucket:  metadataBucket,
		Systems:         systems,
		PrebakedPath:    viper.GetString("prebaked-path"),
		GatewayVersion:  viper.GetString("gateway-version"),
		Flakiness:       viper.GetFloat64("flakiness"),
		BattleCacheSize: viper.GetInt("battle-cache-size"),
		Logger:          log,
	})

	addr := fmt.Sprintf("%s:%d", viper.GetString("host"), viper.GetInt("port"))
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("gateway listening", zap.String("addr", addr), zap.Int("systems", len(systems)))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// buildPipeline wires a chat-backed pipeline when OPENAI_API_KEY is set,
// otherwise a pipeline with no chat backend that only serves requests
// already carrying a DetailedPrompt that is instrumental or has lyrics
// (the degraded path, see DESIGN.md Open Question 1).
func buildPipeline(model_ string) (*promptpipeline.Pipeline, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return promptpipeline.New(nil), nil
	}
	backend, err := chatclient.New(apiKey, model_)
	if err != nil {
		return nil, fmt.Errorf("initializing chat backend: %w", err)
	}
	return promptpipeline.New(backend), nil
}

func buildBucket(ctx context.Context, localDir, gcsBucket, publicBaseURL string) (ports.Bucket, error) {
	switch {
	case gcsBucket != "":
		return bucket.NewGCS(ctx, gcsBucket)
	case localDir != "":
		return bucket.NewLocal(localDir, publicBaseURL)
	default:
		return nil, fmt.Errorf("one of a local directory or a GCS bucket name is required")
	}
}
