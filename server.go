package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"salescoachdev/catalog"
	"salescoachdev/database/sqlite"
	"salescoachdev/dialogue"
	"salescoachdev/logger"
	"salescoachdev/modelapi"
	"salescoachdev/modelapi/geminiapi"
	"salescoachdev/modelapi/openaiapi"
	"salescoachdev/reporting"
	"salescoachdev/scoring"
	"salescoachdev/webapp"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/hyperdxio/opentelemetry-logs-go/exporters/otlp/otlplogs"
	sdk "github.com/hyperdxio/opentelemetry-logs-go/sdk/logs"
	"github.com/hyperdxio/otel-config-go/otelconfig"
)

const (
	defaultPort          = "8080"
	defaultProspectsFile = "data/prospects.json"
	defaultDBFile        = "leaderboard.db"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	godotenv.Load()
	production := os.Getenv("PRODUCTION") != ""

	otelShutdown, err := otelconfig.ConfigureOpenTelemetry()
	if err != nil {
		log.Fatalf("Error setting up OTel SDK - %e", err)
	}
	defer otelShutdown()
	ctx := context.Background()

	logExporter, _ := otlplogs.NewExporter(ctx)
	loggerProvider := sdk.NewLoggerProvider(sdk.WithBatcher(logExporter))
	defer loggerProvider.Shutdown(ctx)

	LogMiddleware := logger.Connect(logger.LoggerConnectProps{Production: production, LoggerProvider: loggerProvider})
	defer LogMiddleware.Sync()
	Logger := LogMiddleware.Logger(ctx)

	db := sqlite.Connect(ctx, sqlite.DatabaseConnectProps{Logger: LogMiddleware, Path: dbPath()})

	prospectsFile := os.Getenv("PROSPECTS_FILE")
	if prospectsFile == "" {
		prospectsFile = defaultProspectsFile
	}
	personas, err := catalog.Load(prospectsFile)
	if err != nil {
		Logger.Fatal("[Catalog] Could not load persona catalog", zap.Error(err), zap.String("path", prospectsFile))
	}
	Logger.Info("[Catalog] Persona catalog loaded", zap.Int("count", len(personas)))

	var completer modelapi.Completer
	if os.Getenv("MODEL_PROVIDER") == "gemini" {
		completer = geminiapi.Connect(ctx, geminiapi.GeminiConnectProps{Logger: LogMiddleware})
	} else {
		completer = openaiapi.Connect(ctx, openaiapi.OpenAIConnectProps{Logger: LogMiddleware})
	}

	dialogueEngine := dialogue.Connect(ctx, dialogue.DialogueConnectProps{Logger: LogMiddleware, Completer: completer})
	scoringEngine := scoring.Connect(ctx, scoring.ScoringConnectProps{Logger: LogMiddleware, Completer: completer})
	reportingEngine := reporting.Connect(ctx, reporting.ReportingConnectProps{Logger: LogMiddleware, Store: db, Completer: completer})

	app := webapp.Connect(ctx, webapp.WebAppConnectProps{
		Logger:    LogMiddleware,
		DB:        db,
		Personas:  personas,
		Dialogue:  dialogueEngine,
		Scoring:   scoringEngine,
		Reporting: reportingEngine,
	})

	router := chi.NewRouter()
	router.Use(requestLoggerMiddleware(LogMiddleware))
	router.Mount("/", app.Router())

	if production {
		Logger.Info("[WebApp] Server starting in production mode", zap.String("port", port))
	} else {
		Logger.Info("[WebApp] Server starting in development mode", zap.String("port", port))
	}

	handler := otelhttp.NewHandler(router, "webapp")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		Logger.Fatal("[WebApp] Server stopped", zap.Error(err))
	}
}

// dbPath resolves the store file next to the program binary, unless DB_FILE
// overrides it.
func dbPath() string {
	if override := os.Getenv("DB_FILE"); override != "" {
		return override
	}
	exe, err := os.Executable()
	if err != nil {
		return defaultDBFile
	}
	return filepath.Join(filepath.Dir(exe), defaultDBFile)
}

func requestLoggerMiddleware(logger *logger.LogMiddleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger.Logger(ctx).Info("Request Received", zap.String("url", r.URL.Path), zap.String("method", r.Method))
			next.ServeHTTP(w, r)
			logger.Logger(ctx).Info("Request Completed", zap.String("path", r.URL.Path), zap.String("method", r.Method))
		})
	}
}
