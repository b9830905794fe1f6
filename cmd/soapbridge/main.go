package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soapbridge/proxy/internal/appconfig"
	"github.com/soapbridge/proxy/internal/catalog"
	"github.com/soapbridge/proxy/internal/gateway"
	"github.com/soapbridge/proxy/internal/httpapi"
	"github.com/soapbridge/proxy/internal/logger"
	"github.com/soapbridge/proxy/internal/runtime"
)

var rootCmd = &cobra.Command{
	Use:   "soapbridge",
	Short: "soapbridge exposes legacy SOAP/WSDL services as JSON/REST endpoints",
	Long: `soapbridge translates WSDL service descriptions into OpenAPI documents
and bridges REST requests onto the underlying SOAP operations at runtime,
optionally registering the resulting tools with an external tool gateway.

Configuration is read entirely from the environment; internal/appconfig
lists every variable and its default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Example: `  # Run with defaults, reading DATABASE_URL etc. from the environment
  soapbridge serve

  # Run against a DynamoDB-backed catalog
  CATALOG_STORE_DRIVER=dynamodb soapbridge serve`,
	RunE: runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply catalog schema migrations and exit",
	Long: `migrate opens the configured catalog store and, for the postgres driver,
runs its auto-migration before exiting. For the dynamodb driver nothing is
created or checked: the tables must already exist.`,
	RunE: runMigrate,
}

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Clear a running instance's WSDL and translation cache",
	Long: `clear-cache calls a running soapbridge instance's admin endpoint rather
than constructing a second, disconnected cache, since the WSDL document
cache lives in the serving process's memory, not in anything this
short-lived command could reach directly. When Redis is configured, the
serving process broadcasts the clear to its peers.`,
	RunE: runClearCache,
}

var clearCacheTargetURL string
var clearCacheAPIKey string

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(clearCacheCmd)

	clearCacheCmd.Flags().StringVar(&clearCacheTargetURL, "url", "", "base URL of the running instance (defaults to PROXY_BASE_URL)")
	clearCacheCmd.Flags().StringVar(&clearCacheAPIKey, "api-key", "", "admin API key (defaults to API_KEY)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appconfig.Load()
	logger.SetLevel(cfg.LogLevel)

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening catalog store: %w", err)
	}

	client := gateway.New(cfg.GatewayURL, cfg.GatewayToken, cfg.GatewayRequestTimeout)
	registrar := gateway.NewRegistrar(store, client, cfg.ProxyBaseURL)
	translator := runtime.New(store, cfg.WSDLRequestTimeout, cfg.GatewayRequestTimeout, cfg.RedisAddr, cfg.RedisPassword)

	handler := httpapi.New(cfg, store, translator, registrar)

	srv := &http.Server{
		Addr:         cfg.Host + ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Infof("shutdown signal received, draining connections")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := appconfig.Load()
	logger.SetLevel(cfg.LogLevel)

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening catalog store: %w", err)
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	logger.Infof("catalog store %q is up to date", cfg.CatalogStoreDriver)
	return nil
}

func runClearCache(cmd *cobra.Command, args []string) error {
	cfg := appconfig.Load()

	target := clearCacheTargetURL
	if target == "" {
		target = cfg.ProxyBaseURL
	}
	apiKey := clearCacheAPIKey
	if apiKey == "" {
		apiKey = cfg.APIKey
	}

	req, err := http.NewRequest(http.MethodPost, target+"/admin/clear-cache", nil)
	if err != nil {
		return err
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("clear-cache request to %s returned %s", target, resp.Status)
	}
	fmt.Println("cache cleared")
	return nil
}

func openStore(cfg *appconfig.Config) (catalog.Store, error) {
	switch cfg.CatalogStoreDriver {
	case "dynamodb":
		return catalog.OpenDynamoDB()
	default:
		return catalog.OpenPostgres(cfg.DatabaseURL)
	}
}
