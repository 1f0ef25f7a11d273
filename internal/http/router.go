package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sari-backend/internal/handlers"
	"sari-backend/internal/middleware"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Auth      *handlers.AuthHandler
	Users     *handlers.UserHandler
	Customers *handlers.CustomerHandler
	Products  *handlers.ProductHandler
	Sales     *handlers.SaleHandler
	Utang     *handlers.UtangHandler
	Dashboard *handlers.DashboardHandler
	Health    *handlers.HealthHandler
	Realtime  http.HandlerFunc
}

func NewRouter(hs Handlers, authMiddleware *middleware.AuthMiddleware) *mux.Router {
	r := mux.NewRouter()
	// Inside the router so the matched route template is visible to it
	r.Use(middleware.MetricsMiddleware)

	// Public routes
	r.HandleFunc("/auth/login", hs.Auth.Login).Methods("POST")
	r.HandleFunc("/health", hs.Health.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", hs.Health.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", hs.Health.DetailedHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler())

	// Realtime events; browsers pass the token as ?token=
	if hs.Realtime != nil {
		r.Handle("/ws", authMiddleware.Authenticate(hs.Realtime)).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/me", hs.Auth.Me).Methods("GET")
	api.HandleFunc("/dashboard", hs.Dashboard.Stats).Methods("GET")

	// Users - admin only
	usersAPI := api.PathPrefix("/users").Subrouter()
	usersAPI.Use(authMiddleware.RequireAdmin)
	usersAPI.HandleFunc("", hs.Users.ListUsers).Methods("GET")
	usersAPI.HandleFunc("", hs.Users.CreateUser).Methods("POST")
	usersAPI.HandleFunc("/{id}", hs.Users.GetUser).Methods("GET")
	usersAPI.HandleFunc("/{id}", hs.Users.UpdateUser).Methods("PUT")

	// Customers
	api.HandleFunc("/customers", hs.Customers.ListCustomers).Methods("GET")
	api.HandleFunc("/customers", hs.Customers.CreateCustomer).Methods("POST")
	api.HandleFunc("/customers/{id}", hs.Customers.GetCustomer).Methods("GET")
	api.HandleFunc("/customers/{id}", hs.Customers.UpdateCustomer).Methods("PUT")
	api.Handle("/customers/{id}", authMiddleware.RequireAdmin(http.HandlerFunc(hs.Customers.DeleteCustomer))).Methods("DELETE")

	// Products
	api.HandleFunc("/products", hs.Products.ListProducts).Methods("GET")
	api.HandleFunc("/products", hs.Products.CreateProduct).Methods("POST")
	api.HandleFunc("/products/barcode/{code}", hs.Products.GetByBarcode).Methods("GET")
	api.HandleFunc("/products/{id}", hs.Products.GetProduct).Methods("GET")
	api.HandleFunc("/products/{id}", hs.Products.UpdateProduct).Methods("PUT")
	api.Handle("/products/{id}", authMiddleware.RequireAdmin(http.HandlerFunc(hs.Products.DeleteProduct))).Methods("DELETE")

	// Sales
	api.HandleFunc("/sales", hs.Sales.ListSales).Methods("GET")
	api.HandleFunc("/sales", hs.Sales.Checkout).Methods("POST")
	api.HandleFunc("/sales/{id}", hs.Sales.GetSale).Methods("GET")

	// Utang
	api.HandleFunc("/utang", hs.Utang.ListLedgers).Methods("GET")
	api.HandleFunc("/utang/customers/{id}", hs.Utang.GetLedger).Methods("GET")
	api.HandleFunc("/utang/customers/{id}/payments", hs.Utang.RecordPayment).Methods("POST")
	api.HandleFunc("/utang/customers/{id}/statement.pdf", hs.Utang.Statement).Methods("GET")
	api.HandleFunc("/utang/records", hs.Utang.CreateRecord).Methods("POST")
	api.HandleFunc("/utang/records/{id}/payments", hs.Utang.PayRecord).Methods("POST")

	return r
}
