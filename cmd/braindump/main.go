// ABOUTME: Entry point for the braindump conversation audit log CLI
// ABOUTME: Maps operator commands onto the conversation engine and formats results

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/salmanrrana/brain-dump-sub000/internal/config"
	"github.com/salmanrrana/brain-dump-sub000/internal/conversation"
	"github.com/salmanrrana/brain-dump-sub000/internal/envdetect"
	"github.com/salmanrrana/brain-dump-sub000/internal/fingerprint"
	"github.com/salmanrrana/brain-dump-sub000/internal/secretscan"
	"github.com/salmanrrana/brain-dump-sub000/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _               _           _
| |__  _ __ __ _(_)_ __   __| |_   _ _ __ ___  _ __
| '_ \| '__/ _' | | '_ \ / _' | | | | '_ ' _ \| '_ \
| |_) | | | (_| | | | | | (_| | |_| | | | | | | |_) |
|_.__/|_|  \__,_|_|_| |_|\__,_|\__,_|_| |_| |_| .__/
                                              |_|
`

// getConfigPath returns the path to the config file.
// Priority: BRAINDUMP_CONFIG env var > XDG_CONFIG_HOME/braindump/config.yaml > ~/.config/braindump/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("BRAINDUMP_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "braindump", "config.yaml")
}

// getDataPath returns the path to the braindump data directory.
// Priority: XDG_DATA_HOME/braindump > ~/.local/share/braindump
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "braindump")
}

func usage() {
	fmt.Println("Usage: braindump <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init                   Create a starter config file and database")
	fmt.Println("  start                  Start a new conversation session")
	fmt.Println("  log                    Log a message to an open session")
	fmt.Println("  end                    End a session")
	fmt.Println("  hold                   Set or release a legal hold on a session")
	fmt.Println("  list                   List session summaries")
	fmt.Println("  export                 Produce a compliance export for a date range")
	fmt.Println("  archive                Preview or run retention-based deletion")
	fmt.Println("  trail                  Show the access log")
	fmt.Println("  project add|list       Manage project records")
	fmt.Println("  ticket add|list        Manage ticket records")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit()
	case "start":
		err = runStart(ctx, os.Args[2:])
	case "log":
		err = runLog(ctx, os.Args[2:])
	case "end":
		err = runEnd(ctx, os.Args[2:])
	case "hold":
		err = runHold(ctx, os.Args[2:])
	case "list":
		err = runList(ctx, os.Args[2:])
	case "export":
		err = runExport(ctx, os.Args[2:])
	case "archive":
		err = runArchive(ctx, os.Args[2:])
	case "trail":
		err = runTrail(ctx, os.Args[2:])
	case "project":
		err = runProject(ctx, os.Args[2:])
	case "ticket":
		err = runTicket(ctx, os.Args[2:])
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		var verr *conversation.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("invalid:"), verr.Message)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// appEnv bundles everything a command needs once the config is loaded.
type appEnv struct {
	cfg   *config.Config
	store *store.SQLiteStore
	svc   *conversation.Service
}

func (e *appEnv) Close() {
	_ = e.store.Close()
}

// openEnv loads config, opens the store, ensures the host fingerprint secret
// exists, and wires the service with the production collaborators.
func openEnv(ctx context.Context) (*appEnv, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	secret, err := ensureFingerprintSecret(ctx, st)
	if err != nil {
		st.Close()
		return nil, err
	}

	scanner := secretscan.New(logger)
	if cfg.Scanner.RulesPath != "" {
		if err := scanner.LoadRules(cfg.Scanner.RulesPath); err != nil {
			st.Close()
			return nil, fmt.Errorf("loading scanner rules: %w", err)
		}
	}

	svc := conversation.NewService(st, fingerprint.New(secret), envdetect.New(), scanner, logger)
	return &appEnv{cfg: cfg, store: st, svc: svc}, nil
}

// ensureFingerprintSecret reads the host identity secret from settings,
// generating and persisting one on first use.
func ensureFingerprintSecret(ctx context.Context, st *store.SQLiteStore) ([]byte, error) {
	value, err := st.GetSetting(ctx, store.SettingFingerprintSecret)
	if errors.Is(err, store.ErrSettingNotFound) {
		raw := make([]byte, 32)
		if _, err := rand.Read(raw); err != nil {
			return nil, fmt.Errorf("generating fingerprint secret: %w", err)
		}
		value = hex.EncodeToString(raw)
		if err := st.SetSetting(ctx, store.SettingFingerprintSecret, value); err != nil {
			return nil, fmt.Errorf("storing fingerprint secret: %w", err)
		}
		return raw, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading fingerprint secret: %w", err)
	}

	secret, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decoding fingerprint secret: %w", err)
	}
	return secret, nil
}

func runInit() error {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists at %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	dbPath := filepath.Join(getDataPath(), "audit.db")
	starter := fmt.Sprintf(`# braindump configuration
database:
  path: %s

logging:
  level: info
  format: text

# scanner:
#   rules_path: /path/to/extra-rules.toml
`, dbPath)

	if err := os.WriteFile(configPath, []byte(starter), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Open once so the schema and fingerprint secret exist before first use
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer st.Close()
	if _, err := ensureFingerprintSecret(context.Background(), st); err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	color.Green("✓ wrote config to %s", configPath)
	color.Green("✓ initialized database at %s", dbPath)
	return nil
}

// setupLogger builds the process logger from config.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Fprint(os.Stderr, buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
