package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"pos-backend/internal/config"
	"pos-backend/internal/handlers"
	"pos-backend/internal/middleware"
	"pos-backend/internal/models"
	"pos-backend/internal/monitoring"
)

// Handlers groups every handler the router mounts.
type Handlers struct {
	Auth     *handlers.AuthHandler
	User     *handlers.UserHandler
	TOTP     *handlers.TOTPHandler
	Customer *handlers.CustomerHandler
	Debt     *handlers.DebtHandler
	Sale     *handlers.SaleHandler
	Product  *handlers.ProductHandler
	Vendor   *handlers.VendorHandler
	Company  *handlers.CompanyHandler
	Purchase *handlers.PurchaseHandler
	Cart     *handlers.CartHandler
	Razorpay *handlers.RazorpayHandler
	Report   *handlers.ReportHandler
	Health   *handlers.HealthHandler
	Hub      *monitoring.Hub
}

func NewRouter(h Handlers, authMiddleware *middleware.AuthMiddleware) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware)

	// Public API routes - Authentication
	r.HandleFunc("/auth/login", h.Auth.Login).Methods("POST")

	// Razorpay calls this directly; the body signature is the auth
	r.HandleFunc("/webhooks/razorpay", h.Razorpay.Webhook).Methods("POST")

	// Live dashboard; browsers pass the token as ?token=
	r.Handle("/ws/dashboard", authMiddleware.Authenticate(http.HandlerFunc(h.Hub.ServeWS))).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate)
	admin := authMiddleware.RequireRole(models.RoleAdmin)

	// Users (admin only), except the caller's own TOTP enrolment
	api.HandleFunc("/users/me/totp/setup", h.TOTP.SetupTOTP).Methods("POST")
	api.HandleFunc("/users/me/totp/enable", h.TOTP.EnableTOTP).Methods("POST")
	api.HandleFunc("/users/me/totp/disable", h.TOTP.DisableTOTP).Methods("POST")
	api.Handle("/users", admin(http.HandlerFunc(h.User.ListUsers))).Methods("GET")
	api.Handle("/users", admin(http.HandlerFunc(h.User.CreateUser))).Methods("POST")
	api.Handle("/users/{id}", admin(http.HandlerFunc(h.User.GetUser))).Methods("GET")
	api.Handle("/users/{id}", admin(http.HandlerFunc(h.User.UpdateUser))).Methods("PUT")
	api.Handle("/users/{id}", admin(http.HandlerFunc(h.User.DeleteUser))).Methods("DELETE")

	// Companies
	api.HandleFunc("/companies", h.Company.ListCompanies).Methods("GET")
	api.HandleFunc("/companies", h.Company.CreateCompany).Methods("POST")
	api.HandleFunc("/companies/{id}", h.Company.GetCompany).Methods("GET")
	api.HandleFunc("/companies/{id}", h.Company.UpdateCompany).Methods("PUT")
	api.HandleFunc("/companies/{id}", h.Company.DeleteCompany).Methods("DELETE")

	// Customers and sub-customer accounts
	api.HandleFunc("/customers", h.Customer.ListCustomers).Methods("GET")
	api.HandleFunc("/customers", h.Customer.CreateCustomer).Methods("POST")
	api.HandleFunc("/customers/{id}", h.Customer.GetCustomer).Methods("GET")
	api.HandleFunc("/customers/{id}", h.Customer.UpdateCustomer).Methods("PUT")
	api.HandleFunc("/customers/{id}", h.Customer.DeleteCustomer).Methods("DELETE")
	api.HandleFunc("/customers/{id}/sub-customers", h.Customer.ListSubCustomers).Methods("GET")
	api.HandleFunc("/customers/{id}/sub-customers", h.Customer.CreateSubCustomer).Methods("POST")
	api.HandleFunc("/sub-customers/{id}", h.Customer.GetSubCustomer).Methods("GET")
	api.HandleFunc("/sub-customers/{id}", h.Customer.UpdateSubCustomer).Methods("PUT")
	api.HandleFunc("/sub-customers/{id}", h.Customer.DeleteSubCustomer).Methods("DELETE")
	api.HandleFunc("/sub-customers/{id}/balance", h.Customer.SubCustomerBalance).Methods("GET")
	api.HandleFunc("/sub-customers/{id}/open", h.Customer.OpenSubCustomer).Methods("POST")
	api.HandleFunc("/sub-customers/{id}/close", h.Customer.CloseSubCustomer).Methods("POST")

	// Debts, refunds and payments
	api.HandleFunc("/debts/customer/{customerId}", h.Debt.GetCustomerSummary).Methods("GET")
	api.HandleFunc("/debts/customer/{customerId}", h.Debt.CreateDebt).Methods("POST")
	api.HandleFunc("/debts/{id}", h.Debt.GetDebt).Methods("GET")
	api.HandleFunc("/debts/{id}", h.Debt.UpdateDebt).Methods("PATCH")
	api.HandleFunc("/debts/{id}", h.Debt.CancelDebt).Methods("DELETE")
	api.HandleFunc("/debts/{id}/refunds", h.Debt.ListRefunds).Methods("GET")
	api.HandleFunc("/debts/{id}/refunds", h.Debt.CreateRefund).Methods("POST")
	api.HandleFunc("/refunds/{id}", h.Debt.CancelRefund).Methods("DELETE")
	api.HandleFunc("/payments", h.Debt.ListPayments).Methods("GET")
	api.HandleFunc("/payments", h.Debt.CreatePayment).Methods("POST")
	api.HandleFunc("/payments/{id}/cancel", h.Debt.CancelPayment).Methods("POST")

	// Sales
	api.HandleFunc("/sales", h.Sale.ListSales).Methods("GET")
	api.HandleFunc("/sales", h.Sale.Checkout).Methods("POST")
	api.HandleFunc("/sales", h.Sale.CancelSale).Methods("DELETE")
	api.HandleFunc("/sales/{id}/receipt.pdf", h.Sale.Receipt).Methods("GET")
	api.HandleFunc("/sales/{id}", h.Sale.GetSale).Methods("GET")
	api.HandleFunc("/sales/{id}", h.Sale.CancelSale).Methods("DELETE")

	// Products; fixed paths before /{id}
	api.HandleFunc("/products", h.Product.ListProducts).Methods("GET")
	api.HandleFunc("/products", h.Product.CreateProduct).Methods("POST")
	api.HandleFunc("/products", h.Product.UpdateProduct).Methods("PATCH")
	api.HandleFunc("/products/low-stock", h.Product.ListLowStock).Methods("GET")
	api.HandleFunc("/products/barcode/{barcode}", h.Product.GetByBarcode).Methods("GET")
	api.HandleFunc("/products/{id}", h.Product.GetProduct).Methods("GET")
	api.HandleFunc("/products/{id}", h.Product.UpdateProduct).Methods("PATCH")
	api.HandleFunc("/products/{id}", h.Product.DeleteProduct).Methods("DELETE")

	// Vendors, purchase orders and payables
	api.HandleFunc("/vendors", h.Vendor.ListVendors).Methods("GET")
	api.HandleFunc("/vendors", h.Vendor.CreateVendor).Methods("POST")
	api.HandleFunc("/vendors/{id}", h.Vendor.GetVendor).Methods("GET")
	api.HandleFunc("/vendors/{id}", h.Vendor.UpdateVendor).Methods("PUT")
	api.HandleFunc("/vendors/{id}", h.Vendor.DeleteVendor).Methods("DELETE")
	api.HandleFunc("/vendors/{id}/balance", h.Vendor.VendorBalance).Methods("GET")
	api.HandleFunc("/purchase-orders", h.Purchase.ListPurchaseOrders).Methods("GET")
	api.HandleFunc("/purchase-orders", h.Purchase.CreatePurchaseOrder).Methods("POST")
	api.HandleFunc("/purchase-orders/{id}", h.Purchase.GetPurchaseOrder).Methods("GET")
	api.HandleFunc("/my-debts", h.Purchase.ListMyDebts).Methods("GET")
	api.HandleFunc("/my-debts", h.Purchase.CreateMyDebt).Methods("POST")
	api.HandleFunc("/my-debts/{id}", h.Purchase.UpdateMyDebt).Methods("PATCH")
	api.HandleFunc("/my-payments", h.Purchase.ListMyPayments).Methods("GET")
	api.HandleFunc("/my-payments", h.Purchase.CreateMyPayment).Methods("POST")

	// Server cart
	api.HandleFunc("/cart", h.Cart.GetCart).Methods("GET")
	api.HandleFunc("/cart", h.Cart.SaveCart).Methods("PUT")
	api.HandleFunc("/cart", h.Cart.ClearCart).Methods("DELETE")
	api.HandleFunc("/cart/checkout", h.Cart.Checkout).Methods("POST")

	// Online payments
	api.HandleFunc("/online-payments/orders", h.Razorpay.CreateOrder).Methods("POST")
	api.HandleFunc("/online-payments/verify", h.Razorpay.VerifyPayment).Methods("POST")

	// Reports
	api.HandleFunc("/reports/dashboard", h.Report.Dashboard).Methods("GET")
	api.HandleFunc("/reports/debtors.csv", h.Report.DebtorsCSV).Methods("GET")
	api.HandleFunc("/reports/sales.xlsx", h.Report.SalesXLSX).Methods("GET")
	api.HandleFunc("/reports/customers/{id}/statement.pdf", h.Report.Statement).Methods("GET")
	api.Handle("/reports/archive", admin(http.HandlerFunc(h.Report.Archive))).Methods("POST")

	// Health endpoints (no auth required - for Kubernetes probes)
	r.HandleFunc("/health", h.Health.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", h.Health.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", h.Health.DetailedHealth).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Wrap applies the outer middleware: panic recovery, request logging, CORS.
func Wrap(router http.Handler, cfg *config.Config, logger *logrus.Logger) http.Handler {
	return middleware.PanicRecovery(logger)(
		middleware.APILogging(logger)(
			middleware.NewCORS(cfg)(router),
		),
	)
}
