package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/ApexRestoration/api-sales/internal/auth"
	"github.com/ApexRestoration/api-sales/internal/commission"
	"github.com/ApexRestoration/api-sales/internal/config"
	"github.com/ApexRestoration/api-sales/internal/deal"
	"github.com/ApexRestoration/api-sales/internal/notify"
	"github.com/ApexRestoration/api-sales/internal/receipt"
	"github.com/ApexRestoration/api-sales/internal/rep"
	"github.com/ApexRestoration/api-sales/internal/utils/db"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	cfg := config.LoadConfig()

	database, err := db.Connect(cfg.DB)
	if err != nil {
		log.Fatal("Erro ao conectar no banco:", err)
	}

	// AutoMigrate para todos os modelos
	if err := database.AutoMigrate(
		&rep.Rep{},
		&deal.Deal{},
		&commission.Commission{},
		&receipt.Receipt{},
	); err != nil {
		log.Fatal("Erro no AutoMigrate:", err)
	}

	cache := config.NewRedisClient(cfg.Redis)
	webhook := notify.NewWebhook(cfg.Webhook.URL)
	renderer := receipt.NewHTTPRenderer(cfg.Renderer.URL)
	rates := rep.NewRateTable(database)

	// Handlers
	repHandler := rep.NewHandler(database)
	dealHandler := deal.NewHandler(database, rates, cache, webhook)
	commissionHandler := commission.NewHandler(commission.NewRepository(database), cache, deal.OwnerResolver{DB: database})
	receiptHandler := receipt.NewHandler(database, receipt.NewTracker(database, renderer))

	// Router
	r := mux.NewRouter()

	// Login (fora do middleware de auth, com rate limit por IP)
	loginLimit := auth.RateLimit("10-M")
	r.Handle("/login", loginLimit(http.HandlerFunc(repHandler.Login))).Methods("POST")

	api := r.NewRoute().Subrouter()
	api.Use(auth.Middleware)

	admin := func(h http.HandlerFunc) http.Handler { return auth.RequireAdmin(h) }

	// Rotas de reps
	api.Handle("/reps", admin(repHandler.Create)).Methods("POST")
	api.HandleFunc("/reps", repHandler.List).Methods("GET")
	api.HandleFunc("/reps/me", repHandler.Me).Methods("GET")
	api.HandleFunc("/reps/me/password", repHandler.ChangePassword).Methods("PATCH")
	api.HandleFunc("/reps/{id}", repHandler.FindByID).Methods("GET")
	api.HandleFunc("/reps/{id}", repHandler.Update).Methods("PUT")
	api.Handle("/reps/{id}", admin(repHandler.Delete)).Methods("DELETE")
	api.HandleFunc("/reps/{id}/deals", dealHandler.ListByRep).Methods("GET")
	api.HandleFunc("/reps/{id}/commissions", commissionHandler.ListByRep).Methods("GET")

	// Rotas de deals
	api.HandleFunc("/deals", dealHandler.Create).Methods("POST")
	api.HandleFunc("/deals", dealHandler.List).Methods("GET")
	api.HandleFunc("/deals/{id}", dealHandler.FindByID).Methods("GET")
	api.HandleFunc("/deals/{id}", dealHandler.Update).Methods("PUT")
	api.Handle("/deals/{id}", admin(dealHandler.Delete)).Methods("DELETE")
	api.HandleFunc("/deals/{id}/status", dealHandler.UpdateStatus).Methods("PATCH")
	api.HandleFunc("/deals/{id}/request-payment", dealHandler.RequestPayment).Methods("POST")
	api.Handle("/deals/{id}/total", admin(dealHandler.UpdateTotal)).Methods("PATCH")
	api.HandleFunc("/deals/{id}/signature", dealHandler.PatchSignature).Methods("PATCH")
	api.HandleFunc("/deals/{id}/permit", dealHandler.PatchPermit).Methods("PATCH")
	api.HandleFunc("/deals/{id}/install-date", dealHandler.PatchInstallDate).Methods("PATCH")
	api.HandleFunc("/deals/{id}/install-images", dealHandler.AddInstallImages).Methods("POST")
	api.HandleFunc("/deals/{id}/completion-images", dealHandler.AddCompletionImages).Methods("POST")
	api.HandleFunc("/deals/{id}/inspection-images", dealHandler.AddInspectionImages).Methods("POST")

	// Rotas de comissões
	api.HandleFunc("/deals/{id}/commissions", commissionHandler.ListByDeal).Methods("GET")
	api.Handle("/deals/{id}/commissions/{cid}/paid", admin(commissionHandler.MarkPaid)).Methods("PATCH")
	api.Handle("/deals/{id}/commissions/{cid}/override", admin(commissionHandler.Override)).Methods("PATCH")

	// Rotas de recibos
	api.HandleFunc("/deals/{id}/receipts", receiptHandler.List).Methods("GET")
	api.HandleFunc("/deals/{id}/receipts/{kind}", receiptHandler.Record).Methods("POST")
	api.Handle("/deals/{id}/receipts/{kind}", admin(receiptHandler.Replace)).Methods("PUT")

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(r)

	// Inicia servidor
	addr := ":" + cfg.Server.Port
	fmt.Println("Servidor rodando em http://localhost" + addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
