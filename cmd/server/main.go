package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/api/http"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/audit"
	auth "github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/auth/middleware"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/config"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/db"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/evaluation"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/llm"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/rbac"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/rubric"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/student"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	rubricStore := rubric.NewSQLStore(dbh)
	studentStore := student.NewSQLStore(dbh)
	evalStore := evaluation.NewSQLStore(dbh)
	events := audit.NewEventRepo(dbh)

	if err := auth.SeedAdmin(ctx, dbh, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if cfg.SeedDefaults {
		if err := rubric.SeedDefaults(ctx, rubricStore); err != nil {
			log.Fatalf("seed rubric catalog: %v", err)
		}
	}

	// --- Model-assisted scoring ---
	// The client is built once here; with no credential the scorer stays nil
	// and the /llm endpoint reports 503 instead of guessing.
	var scorer *evaluation.ModelScorer
	if cfg.LLMAPIKey != "" {
		client := llm.New(llm.Config{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: cfg.LLMBaseURL,
			Timeout: cfg.LLMTimeout,
		})
		scorer = evaluation.NewModelScorer(client, cfg.LLMModels, cfg.LLMMaxExcerpt)
		log.Printf("model-assisted scoring enabled via %s (models: %v)", cfg.LLMBaseURL, cfg.LLMModels)
	} else {
		log.Printf("LLM_API_KEY not set; model-assisted scoring disabled")
	}

	svc := evaluation.NewService(evalStore, rubricStore, studentStore, scorer, events)
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if err := dbh.PingContext(req.Context()); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/api/auth/login", auth.LoginHandler(authSvc, dbh))
	r.Post("/api/auth/register", auth.RegisterHandler(dbh))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.Get("/api/auth/me", auth.MeHandler(dbh))

		pr.With(rbac.Require("student:create")).
			Post("/api/students", api.HandleCreateStudent(studentStore))
		pr.With(rbac.Require("student:view")).
			Get("/api/students", api.HandleListStudents(studentStore))
		pr.With(rbac.Require("student:view")).
			Get("/api/students/{studentID}", api.HandleGetStudent(studentStore))
		pr.With(rbac.Require("evaluation:view")).
			Get("/api/students/{studentID}/evaluations", api.HandleStudentEvaluations(svc, studentStore))

		pr.With(rbac.Require("report_type:view")).
			Get("/api/report-types", api.HandleListReportTypes(rubricStore))
		pr.With(rbac.Require("report_type:create")).
			Post("/api/report-types", api.HandleCreateReportType(rubricStore))
		pr.With(rbac.Require("rubric:view")).
			Get("/api/report-types/{reportTypeID}/rubrics", api.HandleListRubrics(rubricStore))
		pr.With(rbac.Require("rubric:create")).
			Post("/api/report-types/{reportTypeID}/rubrics", api.HandleCreateRubric(rubricStore))
		pr.With(rbac.Require("rubric:create")).
			Post("/api/rubrics/import", api.HandleImportRubricsCSV(rubricStore))

		pr.With(rbac.Require("statistics:view")).
			Get("/api/statistics", api.HandleAllStatistics(rubricStore))
		pr.With(rbac.Require("statistics:view")).
			Get("/api/report-types/{reportTypeID}/statistics", api.HandleStatistics(rubricStore))

		pr.With(rbac.Require("evaluation:create")).
			Post("/api/evaluations", api.HandleCreateEvaluation(svc))
		pr.With(rbac.Require("evaluation:create")).
			Post("/api/evaluations/rule-based", api.HandleEvaluateRuleBased(svc))
		pr.With(rbac.Require("evaluation:create")).
			Post("/api/evaluations/llm", api.HandleEvaluateLLM(svc))
		pr.With(rbac.Require("evaluation:view")).
			Get("/api/evaluations", api.HandleListEvaluations(svc))
		pr.With(rbac.Require("evaluation:view")).
			Get("/api/evaluations/mine", api.HandleMyEvaluations(svc))
		pr.With(rbac.Require("evaluation:view")).
			Get("/api/evaluations/{evaluationID}", api.HandleGetEvaluation(svc))
		pr.With(rbac.Require("report:view")).
			Get("/api/evaluations/{evaluationID}/report/html", api.HandleEvaluationReport(svc))
	})

	log.Printf("evaluation server listening on %s", cfg.HTTPAddr)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
