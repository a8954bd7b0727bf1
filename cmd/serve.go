package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/deal-engine/internal/engine"
	"github.com/sells-group/deal-engine/internal/model"
	"github.com/sells-group/deal-engine/internal/resilience"
	"github.com/sells-group/deal-engine/internal/store"
)

var (
	servePort      int
	serveOverrides string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analyze API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		base, err := basePolicy(serveOverrides)
		if err != nil {
			return err
		}
		eng := engine.New(base, time.Now().Year())

		var st store.Store
		if cfg.Engine.PersistRuns {
			st, err = initStore(ctx)
			if err != nil {
				return eris.Wrap(err, "init store")
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
		}

		r := chi.NewRouter()
		r.Use(chimiddleware.RequestID)
		r.Use(chimiddleware.RealIP)
		r.Use(chimiddleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Use(rateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/v1/analyze", handleAnalyze(eng, st, newStoreBreaker()))

		r.Get("/v1/runs", func(w http.ResponseWriter, req *http.Request) {
			if st == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "run persistence is disabled"})
				return
			}
			runs, err := st.ListRuns(req.Context(), store.RunFilter{
				Status: model.RunStatus(req.URL.Query().Get("status")),
				Limit:  50,
			})
			if err != nil {
				zap.L().Error("list runs failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list runs failed"})
				return
			}
			writeJSON(w, http.StatusOK, runs)
		})

		r.Get("/v1/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
			if st == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "run persistence is disabled"})
				return
			}
			run, err := st.GetRun(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
				return
			}
			writeJSON(w, http.StatusOK, run)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveOverrides, "overrides", "", "policy overrides YAML file (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newStoreBreaker builds the circuit breaker guarding store writes, logging
// state transitions.
func newStoreBreaker() *resilience.CircuitBreaker {
	cfg := resilience.DefaultCircuitBreakerConfig()
	cfg.OnStateChange = func(from, to resilience.CircuitState) {
		zap.L().Warn("store circuit breaker state change",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
	return resilience.NewCircuitBreaker(cfg)
}

// handleAnalyze runs one synchronous underwriting pass per request. The
// response envelope is always 200 with ok=false on rejected input, matching
// the CLI output, except for malformed JSON which is a plain 400.
func handleAnalyze(eng *engine.Engine, st store.Store, cb *resilience.CircuitBreaker) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var in engine.AnalyzeInput
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		res, err := eng.Analyze(req.Context(), in)

		var resp engine.Response
		if err != nil {
			resp = engine.Failure(err)
		} else {
			resp = engine.Success(res)
		}

		if st != nil {
			if perr := persistRun(req.Context(), st, cb, in.Posture, resp); perr != nil {
				zap.L().Warn("persist analysis run failed", zap.Error(perr))
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// persistRun stores one analysis outcome. Writes retry on transient faults;
// the circuit breaker sheds them entirely while the store is down so request
// latency does not stack retry loops.
func persistRun(ctx context.Context, st store.Store, cb *resilience.CircuitBreaker, label string, resp engine.Response) error {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("store", "persist_run")

	run, err := resilience.ExecuteVal(ctx, cb, func(ctx context.Context) (*model.AnalysisRun, error) {
		return resilience.DoVal(ctx, retry, func(ctx context.Context) (*model.AnalysisRun, error) {
			return st.CreateRun(ctx, label)
		})
	})
	if err != nil {
		return err
	}

	if !resp.OK {
		msg := "analysis failed"
		if resp.Error != nil {
			msg = resp.Error.Message
		}
		return cb.Execute(ctx, func(ctx context.Context) error {
			return resilience.Do(ctx, retry, func(ctx context.Context) error {
				return st.FailRun(ctx, run.ID, msg)
			})
		})
	}

	payload, err := json.Marshal(resp.Result)
	if err != nil {
		return err
	}
	summary := store.RunSummary{
		Recommendation:  resp.Result.Outputs.Recommendation,
		WorkflowState:   resp.Result.Outputs.WorkflowState,
		ConfidenceGrade: resp.Result.Outputs.ConfidenceGrade,
	}
	return cb.Execute(ctx, func(ctx context.Context) error {
		return resilience.Do(ctx, retry, func(ctx context.Context) error {
			return st.CompleteRun(ctx, run.ID, summary, payload)
		})
	})
}

// rateLimit applies a global token-bucket limit to all requests.
func rateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		rps = 20
	}
	if burst <= 0 {
		burst = int(rps) * 2
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
