package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/stripe/stripe-go/v82"

	"parkfacil/internal/api"
	"parkfacil/internal/auth"
	"parkfacil/internal/repository"
	"parkfacil/internal/service"
)

func main() {
	godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	database, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := database.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	spotRepo := repository.NewSpotRepository(database)
	reservationRepo := repository.NewReservationRepository(database)
	accountRepo := repository.NewAccountRepository(database)
	vehicleRepo := repository.NewVehicleRepository(database)
	paymentRepo := repository.NewPaymentRepository(database)
	directory := repository.NewDirectory(accountRepo, vehicleRepo)

	notifySvc := service.NewNotifyService(directory)
	reservationSvc := service.NewReservationService(spotRepo, reservationRepo)
	reservationSvc.Identity = directory
	reservationSvc.Notifier = notifySvc
	paymentSvc := service.NewPaymentService(paymentRepo)
	operatorSvc := service.NewOperatorService(spotRepo, reservationRepo)
	authSvc := service.NewAuthService(accountRepo)
	addressSvc := service.NewAddressService()
	jobSvc := service.NewJobService(reservationRepo, notifySvc)

	reservationHandler := api.NewReservationHandler(reservationSvc, paymentSvc)
	spotHandler := api.NewSpotHandler(operatorSvc)
	authHandler := api.NewAuthHandler(authSvc)
	vehicleHandler := api.NewVehicleHandler(vehicleRepo)
	paymentHandler := api.NewPaymentHandler(paymentSvc)
	addressHandler := api.NewAddressHandler(addressSvc)

	c := cron.New()
	if _, err := c.AddFunc("*/10 * * * *", func() {
		if err := jobSvc.RemindOverdueReservations(); err != nil {
			log.Printf("Overdue sweep failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule overdue sweep: %v", err)
	}
	c.Start()
	defer c.Stop()

	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()

	// Public endpoints
	v1.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","timestamp":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
	}).Methods("GET")
	v1.HandleFunc("/operators/register", authHandler.RegisterOperator).Methods("POST")
	v1.HandleFunc("/operators/login", authHandler.OperatorLogin).Methods("POST")
	v1.HandleFunc("/customers/register", authHandler.RegisterCustomer).Methods("POST")
	v1.HandleFunc("/customers/login", authHandler.CustomerLogin).Methods("POST")
	v1.HandleFunc("/address/{zipCode}", addressHandler.Lookup).Methods("GET")
	v1.HandleFunc("/parking-spots-available", spotHandler.ListAvailableSpots).Methods("GET")

	// Customer endpoints (any authenticated account)
	authed := v1.NewRoute().Subrouter()
	authed.Use(auth.Middleware(""))
	authed.HandleFunc("/me", authHandler.Me).Methods("GET")
	authed.HandleFunc("/reservations", reservationHandler.CreateReservation).Methods("POST")
	authed.HandleFunc("/reservations/quote", reservationHandler.Quote).Methods("POST")
	authed.HandleFunc("/reservations/search", reservationHandler.SearchByPlate).Methods("GET")
	authed.HandleFunc("/reservations/active-by-spot/{spotId}", reservationHandler.ActiveBySpot).Methods("GET")
	authed.HandleFunc("/reservations/code/{code}", reservationHandler.GetReservationByCode).Methods("GET")
	authed.HandleFunc("/reservations/{id}", reservationHandler.GetReservation).Methods("GET")
	authed.HandleFunc("/reservations/{id}/complete", reservationHandler.CompleteReservation).Methods("POST")
	authed.HandleFunc("/reservations/{id}/cancel", reservationHandler.CancelReservation).Methods("POST")
	authed.HandleFunc("/vehicles", vehicleHandler.CreateVehicle).Methods("POST")
	authed.HandleFunc("/vehicles", vehicleHandler.ListVehicles).Methods("GET")
	authed.HandleFunc("/vehicles/{id}", vehicleHandler.GetVehicle).Methods("GET")
	authed.HandleFunc("/vehicles/{id}", vehicleHandler.DeleteVehicle).Methods("DELETE")
	authed.HandleFunc("/payments/{id}", paymentHandler.GetPayment).Methods("GET")
	authed.HandleFunc("/payments/{id}/checkout", paymentHandler.CheckoutLink).Methods("POST")
	authed.HandleFunc("/reservations/{reservationId}/payment", paymentHandler.GetByReservation).Methods("GET")

	// Operator endpoints
	operator := v1.NewRoute().Subrouter()
	operator.Use(auth.Middleware(service.RoleOperator))
	operator.HandleFunc("/operators/stats", spotHandler.Stats).Methods("GET")
	operator.HandleFunc("/parking-spots", spotHandler.CreateSpot).Methods("POST")
	operator.HandleFunc("/parking-spots", spotHandler.ListSpots).Methods("GET")
	operator.HandleFunc("/parking-spots/{id}", spotHandler.UpdateSpotRate).Methods("PUT")
	operator.HandleFunc("/parking-spots/{id}", spotHandler.DeleteSpot).Methods("DELETE")
	operator.HandleFunc("/reservations/{id}/operator-finalize", reservationHandler.OperatorFinalize).Methods("POST")
	operator.HandleFunc("/payments/{id}/mark-as-paid", paymentHandler.MarkAsPaid).Methods("POST")
	operator.HandleFunc("/payments/{id}/refund", paymentHandler.Refund).Methods("POST")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, handlers.LoggingHandler(os.Stdout, cors(r))))
}
