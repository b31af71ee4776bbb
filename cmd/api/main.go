package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wavelead/crm-engine/internal/infra/database"
	"github.com/wavelead/crm-engine/internal/infra/http/handlers"
	"github.com/wavelead/crm-engine/internal/infra/http/middleware"
	"github.com/wavelead/crm-engine/internal/infra/integration/n8n"
	"github.com/wavelead/crm-engine/internal/infra/mail"
	"github.com/wavelead/crm-engine/internal/infra/queue"
	"github.com/wavelead/crm-engine/internal/infra/worker"
	"github.com/wavelead/crm-engine/internal/usecase"
)

func main() {
	godotenv.Load()

	db, err := database.NewDBConnection(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("❌ database connection failed: %v", err)
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(
		envOr("RABBITMQ_USER", "user"),
		envOr("RABBITMQ_PASS", "password"),
		envOr("RABBITMQ_HOST", "localhost"),
		envOr("RABBITMQ_PORT", "5672"),
	)
	if err != nil {
		log.Fatalf("❌ RabbitMQ connection failed: %v", err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	// 1. Repositories
	leadRepo := database.NewLeadRepository(db)
	groupRepo := database.NewGroupRepository(db)
	labelRepo := database.NewLabelRepository(db)
	ruleRepo := database.NewRuleRepository(db)
	campaignRepo := database.NewCampaignRepository(db)
	syncRepo := database.NewSyncEventRepository(db)

	// 2. Gateways and adapters
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)
	mailSender := mail.NewEmailSender(
		os.Getenv("MAIL_HOST"), envInt("MAIL_PORT", 587),
		os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"),
		os.Getenv("MAIL_FROM"), os.Getenv("OPERATOR_EMAIL"),
	)

	var webhook usecase.CampaignWebhookInterface
	if url := os.Getenv("N8N_CAMPAIGN_WEBHOOK_URL"); url != "" {
		webhook = n8n.NewClient(url)
	}

	// 3. Use cases
	scoreCfg := usecase.ScoreConfig{HardClampEngagement: os.Getenv("HARD_CLAMP_ENGAGEMENT") == "true"}
	rescorer := usecase.NewRescorer(leadRepo, groupRepo, ruleRepo, scoreCfg)
	groupRegistry := usecase.NewGroupRegistry(groupRepo)
	labelRegistry := usecase.NewLabelRegistry(labelRepo, leadRepo)
	ruleRegistry := usecase.NewRuleRegistry(ruleRepo)
	campaignService := usecase.NewCampaignService(campaignRepo, leadRepo, groupRepo, webhook)
	ingestService := usecase.NewIngestService(leadRepo, labelRepo, campaignRepo, syncRepo, producer, mailSender)
	exporter := usecase.NewExporter(os.Getenv("EXPORT_COUNTRY_CODE"))
	dashboard := usecase.NewDashboard(leadRepo, campaignRepo, syncRepo)

	// 4. Workers
	rescoreWorker := queue.NewWorker(rabbitMQ.Ch, rescorer)
	go rescoreWorker.Start(queue.QueueName)

	reminderWorker := worker.NewSyncReminderWorker(campaignRepo, mailSender)
	go reminderWorker.Start(context.Background())

	// 5. Handlers
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn)
	groupHandler := handlers.NewGroupHandler(groupRegistry, groupRepo)
	labelHandler := handlers.NewLabelHandler(labelRegistry)
	ruleHandler := handlers.NewRuleHandler(ruleRegistry)
	leadHandler := handlers.NewLeadHandler(leadRepo, producer)
	campaignHandler := handlers.NewCampaignHandler(campaignService, exporter)
	uploadHandler := handlers.NewUploadHandler(ingestService)
	syncHandler := handlers.NewSyncHandler(syncRepo)
	dashboardHandler := handlers.NewDashboardHandler(dashboard)

	// 6. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-User-ID"},
	}))

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/groups", func(r chi.Router) {
			r.Get("/", groupHandler.List)
			r.Post("/", groupHandler.Create)
			r.Put("/{id}", groupHandler.Update)
			r.Delete("/{id}", groupHandler.Delete)
			r.Post("/reset", groupHandler.Reset)
		})

		r.Route("/labels", func(r chi.Router) {
			r.Get("/", labelHandler.List)
			r.Post("/", labelHandler.Create)
			r.Put("/{id}", labelHandler.Update)
			r.Delete("/{id}", labelHandler.Delete)
			r.Post("/{id}/archive", labelHandler.Archive)
			r.Post("/{id}/reactivate", labelHandler.Reactivate)
		})

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", ruleHandler.List)
			r.Post("/", ruleHandler.Create)
			r.Put("/{id}", ruleHandler.Update)
			r.Delete("/{id}", ruleHandler.Delete)
			r.Post("/reset", ruleHandler.Reset)
		})

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", leadHandler.List)
			r.Get("/metrics", leadHandler.Metrics)
			r.Get("/segments", leadHandler.Segments)
			r.Post("/rescore", leadHandler.Rescore)
			r.Get("/{id}", leadHandler.Get)
			r.Post("/{id}/rescore", leadHandler.RescoreOne)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", campaignHandler.List)
			r.Post("/", campaignHandler.Create)
			r.Get("/{id}", campaignHandler.Get)
			r.Delete("/{id}", campaignHandler.Delete)
			r.Get("/{id}/export", campaignHandler.Export)
		})

		r.Post("/uploads", uploadHandler.Handle)
		r.Get("/sync/latest", syncHandler.Latest)
		r.Get("/metrics/actionable", dashboardHandler.Actionable)
	})

	port := ":" + envOr("PORT", "8080")
	log.Printf("🔥 CRM engine listening on %s", port)
	http.ListenAndServe(port, r)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
