package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers Swagger documentation routes
// @Summary Swagger documentation
// @Description Swagger API documentation for the back-office
// @Tags Swagger
// @Success 200 {string} string "Swagger UI"
// @Router /swagger/ [get]
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	// Swagger UI
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// SubmitOrder godoc
// @Summary Submit or resubmit an order
// @Description Create the order for (employee, date, round) or reconcile line items against the existing one
// @Tags Orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{employee_id=int,order_date=string,shipment_round=int,total_amount=number,total_incentive=number,total_boxes=int,order_items=array} true "Order submission"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string}
// @Router /api/orders [post]
func (h *OrderHandler) SubmitOrderDoc() {}

// OrderExists godoc
// @Summary Check whether orders exist for a date
// @Description Partition-aware check for any order with line items on the date
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Param order_date path string true "Order date (YYYY-MM-DD)"
// @Success 200 {object} object{success=bool,data=object{exists=bool}}
// @Router /api/orders/exists/{order_date} [get]
func (h *OrderHandler) OrderExistsDoc() {}

// LockOrders godoc
// @Summary Lock ordering for a date
// @Description Block new and modified orders for the date (Admin only)
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Param order_date path string true "Order date (YYYY-MM-DD)"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 403 {object} object{success=bool,error=string}
// @Router /api/orders/lock/{order_date} [post]
func (h *OrderHandler) LockOrdersDoc() {}

// LockStatus godoc
// @Summary Read the lock flags for a date
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Param order_date path string true "Order date (YYYY-MM-DD)"
// @Success 200 {object} object{success=bool,data=object{is_locked=bool,is_finalized=bool}}
// @Router /api/orders/lock_status/{order_date} [get]
func (h *OrderHandler) LockStatusDoc() {}

// AvailableShipmentRound godoc
// @Summary Next round an employee may submit into
// @Description Gated by the overnight ordering window for first-time submissions
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Param order_date path string true "Order date (YYYY-MM-DD)"
// @Param employee_id query int true "Employee ID"
// @Success 200 {object} object{success=bool,data=object{shipment_round=int}}
// @Failure 403 {object} object{success=bool,error=string}
// @Router /api/orders/available_shipment_round/{order_date} [get]
func (h *OrderHandler) AvailableShipmentRoundDoc() {}

// UpdateItemQuantity godoc
// @Summary Correct one line item quantity
// @Description Adjusts stock by the delta; admins may correct locked dates
// @Tags Orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param order_id path int true "Order ID"
// @Param request body object{product_id=int,quantity=int} true "Correction"
// @Success 200 {object} object{success=bool,message=string,data=object}
// @Failure 403 {object} object{success=bool,error=string}
// @Failure 404 {object} object{success=bool,error=string}
// @Router /api/orders/update_quantity/{order_id} [put]
func (h *OrderHandler) UpdateItemQuantityDoc() {}
