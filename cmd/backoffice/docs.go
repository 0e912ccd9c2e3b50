package main

// @title Wholesale Back-Office API
// @version 1.0
// @description Order placement, year-partitioned order ledger and stock control for the wholesale back-office
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/tair/wholesale-backoffice
// @contact.email support@example.com

// @license.name MIT
// @license.url https://github.com/tair/wholesale-backoffice/blob/main/LICENSE

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Orders
// @tag.description Order submission, locks and shipment rounds

// @tag.name Products
// @tag.description Product catalog and stock endpoints

// @tag.name Health
// @tag.description Health check endpoints

// @tag.name Swagger
// @tag.description Swagger documentation endpoints
