// Command warehouse starts the Warehouse Push Simulator.
//
// It supports three commands:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "run" – solves a puzzle file offline and prints its GPS sums
//
// Settings come from the environment (and .env); flags override them.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/warehouse/api"
	"github.com/wricardo/mcp-training/warehouse/game/config"
	"github.com/wricardo/mcp-training/warehouse/game/service"
	"github.com/wricardo/mcp-training/warehouse/game/session"
	"github.com/wricardo/mcp-training/warehouse/telemetry"
	"github.com/wricardo/mcp-training/warehouse/transport/mcp"
	"github.com/wricardo/mcp-training/warehouse/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Warehouse Push Simulator"
)

const (
	cleanupInterval = time.Hour
	syncInterval    = 5 * time.Second
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree. Flags declared on the root are visible to
// every subcommand.
func newApp() *cli.Command {
	return &cli.Command{
		Name:           "warehouse",
		Usage:          AppName,
		Version:        Version,
		Writer:         os.Stdout,
		DefaultCommand: "server",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "Environment file loaded before parsing settings"},
			&cli.StringFlag{Name: "host", Usage: "HTTP server host (WAREHOUSE_HOST)"},
			&cli.IntFlag{Name: "port", Usage: "HTTP server port (WAREHOUSE_PORT)"},
			&cli.StringFlag{Name: "config-dir", Usage: "Directory containing warehouse scenarios (CONFIG_DIR)"},
			&cli.StringFlag{Name: "store", Usage: "Session store: file, sqlite or memory (SESSION_STORE)"},
			&cli.StringFlag{Name: "sessions-dir", Usage: "Directory for file session store (SESSIONS_DIR)"},
			&cli.StringFlag{Name: "sqlite-path", Usage: "Database path for sqlite session store (SQLITE_PATH)"},
			&cli.DurationFlag{Name: "session-ttl", Usage: "Evict sessions idle for longer than this (SESSION_TTL)"},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel (NGROK_ENABLED)"},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token (NGROK_AUTHTOKEN)"},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (NGROK_DOMAIN)"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetFlags(log.LstdFlags)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  serverAction,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  stdioAction,
			},
			runCommand(),
		},
	}
}

// loadSettings reads Settings from the environment, then applies any flag
// the user set explicitly.
func loadSettings(cmd *cli.Command) (*config.Settings, error) {
	settings, err := config.LoadSettings(cmd.String("env-file"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("host") {
		settings.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		settings.Port = cmd.Int("port")
	}
	if cmd.IsSet("config-dir") {
		settings.ConfigDir = cmd.String("config-dir")
	}
	if cmd.IsSet("store") {
		settings.SessionStore = cmd.String("store")
	}
	if cmd.IsSet("sessions-dir") {
		settings.SessionsDir = cmd.String("sessions-dir")
	}
	if cmd.IsSet("sqlite-path") {
		settings.SQLitePath = cmd.String("sqlite-path")
	}
	if cmd.IsSet("session-ttl") {
		settings.SessionTTL = cmd.Duration("session-ttl")
	}
	if cmd.IsSet("ngrok") {
		settings.NgrokEnabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		settings.NgrokAuthtoken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		settings.NgrokDomain = cmd.String("ngrok-domain")
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// services bundles what initializeServices wires together.
type services struct {
	game     service.GameService
	sessions *session.Manager
	close    func()
}

// initializeServices wires session/config managers and the game service.
// It also starts background routines that evict idle sessions and drop
// sessions whose persisted copy disappeared. They stop when ctx is done.
func initializeServices(ctx context.Context, settings *config.Settings) (*services, error) {
	// Create config manager first (needed for persistence)
	configManager, err := config.NewManager(settings.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	var (
		sessionManager *session.Manager
		sqliteStore    *session.SQLitePersistence
	)
	closeFn := func() {}

	switch settings.SessionStore {
	case config.StoreMemory:
		sessionManager = session.NewManager()
	case config.StoreSQLite:
		sqliteStore, err = session.OpenSQLitePersistence(settings.SQLitePath, configManager)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite session store: %w", err)
		}
		sessionManager = session.NewManagerWithPersistence(sqliteStore)
		closeFn = func() {
			if err := sqliteStore.Close(); err != nil {
				log.Printf("[SESSION] close sqlite store: %v", err)
			}
		}
	default:
		persistence, err := session.NewFilePersistence(settings.SessionsDir, configManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		sessionManager = session.NewManagerWithPersistence(persistence)
	}
	log.Printf("[SESSION] store=%s", settings.SessionStore)

	// Load persisted sessions on startup
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Printf("Warning: Failed to load persisted sessions: %v", err)
	}

	gameService := service.NewGameService(sessionManager, configManager)

	go sessionCleanupRoutine(ctx, sessionManager, sqliteStore, settings.SessionTTL)
	if settings.SessionStore != config.StoreMemory {
		go persistenceSyncRoutine(ctx, sessionManager)
	}

	return &services{game: gameService, sessions: sessionManager, close: closeFn}, nil
}

// sessionCleanupRoutine periodically evicts sessions that have not been
// accessed within ttl. With a sqlite store it also prunes idle rows.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, store *session.SQLitePersistence, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
			log.Printf("[SESSION] evicted %d idle sessions", removed)
		}
		if store != nil {
			n, err := store.DeleteIdleBefore(time.Now().Add(-ttl))
			if err != nil {
				log.Printf("[SESSION] prune sqlite store: %v", err)
			} else if n > 0 {
				log.Printf("[SESSION] pruned %d idle rows", n)
			}
		}
	}
}

// persistenceSyncRoutine periodically drops in-memory sessions whose
// persisted copy was deleted out of band.
func persistenceSyncRoutine(ctx context.Context, manager *session.Manager) {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := manager.SyncFromPersistence(); pruned > 0 {
				log.Printf("[SESSION] sync: pruned %d orphaned sessions from memory", pruned)
			}
		}
	}
}

func setupTelemetry(ctx context.Context, settings *config.Settings) func() {
	shutdown, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName:    "warehouse",
		ServiceVersion: Version,
		Endpoint:       settings.OTelEndpoint,
		Enabled:        settings.OTelEnabled,
	})
	if err != nil {
		log.Printf("Warning: tracing disabled: %v", err)
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			log.Printf("Warning: tracing shutdown: %v", err)
		}
	}
}

func serverAction(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log.Printf("Starting %s v%s (mode: server)", AppName, Version)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer setupTelemetry(ctx, settings)()

	svc, err := initializeServices(ctx, settings)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svc.close()

	return runHTTPServer(ctx, settings, svc)
}

// newMainRouter mounts the API server at root and the MCP proxy at /mcp.
func newMainRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mainRouter
}

// runHTTPServer serves REST, WebSocket and /mcp until ctx is cancelled. If
// ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, settings *config.Settings, svc *services) error {
	hub := websocket.NewHub()
	go hub.Run(ctx)

	apiServer := api.NewServer(svc.game, hub)
	addr := settings.Addr()
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	mainRouter := newMainRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if settings.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, settings, mainRouter)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err = <-serveErr:
		log.Printf("HTTP server failed: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	if err := svc.sessions.SaveAllSessions(); err != nil {
		log.Printf("Warning: failed to save sessions: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
	return err
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done.
func runNgrokTunnel(ctx context.Context, settings *config.Settings, handler http.Handler) {
	if settings.NgrokAuthtoken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if settings.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(settings.NgrokDomain))
		log.Printf("Using custom ngrok domain: %s", settings.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(settings.NgrokAuthtoken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

func stdioAction(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	log.Printf("Starting %s v%s (mode: stdio-mcp)", AppName, Version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	defer setupTelemetry(ctx, settings)()

	svc, err := initializeServices(ctx, settings)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svc.close()

	return runStdioMCPWithInternalServer(ctx, settings, svc)
}

// externalAPIAvailable reports whether a warehouse API answers at baseURL.
func externalAPIAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalServer serves the API on a random loopback port and returns
// its base URL.
func startInternalServer(ctx context.Context, gameService service.GameService) (string, *http.Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Internal HTTP server error: %v", err)
		}
	}()

	return fmt.Sprintf("http://%s", listener.Addr().String()), httpServer, nil
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses an API
// already listening on the configured address; otherwise it starts an
// internal one on a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, settings *config.Settings, svc *services) error {
	externalURL := fmt.Sprintf("http://%s", settings.Addr())
	log.Printf("Checking for external API server at %s...", externalURL)

	baseURL := externalURL
	if externalAPIAvailable(externalURL) {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		internalURL, httpServer, err := startInternalServer(ctx, svc.game)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpServer.Shutdown(shutdownCtx)
			if err := svc.sessions.SaveAllSessions(); err != nil {
				log.Printf("Warning: failed to save sessions: %v", err)
			}
		}()
		baseURL = internalURL
		log.Printf("Internal HTTP server on %s for MCP stdio", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Println("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
