package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/pkg/middleware"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	publicMiddleware "github.com/tsel-ticketmaster/tm-fulfillment/pkg/middleware"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/response"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

type HTTPHandler struct {
	Validate      *validator.Validate
	TicketUseCase TicketUseCase
}

func InitHTTPHandler(router *mux.Router, customerSession *middleware.CustomerSession, adminSession *middleware.AdminSession, validate *validator.Validate, ticketUseCase TicketUseCase) {
	handler := &HTTPHandler{
		Validate:      validate,
		TicketUseCase: ticketUseCase,
	}

	router.HandleFunc("/tm-fulfillment/v1/customerapp/tickets", publicMiddleware.SetRouteChain(handler.GetManyTicket, customerSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/tm-fulfillment/v1/customerapp/tickets/{ticketId}/cancel", publicMiddleware.SetRouteChain(handler.Cancel, customerSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/tm-fulfillment/v1/customerapp/tickets/{ticketId}/transfer", publicMiddleware.SetRouteChain(handler.Transfer, customerSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/tm-fulfillment/v1/adminapp/tickets/check-in", publicMiddleware.SetRouteChain(handler.CheckIn, adminSession.Verify)).Methods(http.MethodPost)
}

func (handler HTTPHandler) validate(ctx context.Context, payload interface{}) error {
	err := handler.Validate.StructCtx(ctx, payload)
	if err == nil {
		return nil
	}

	errorFields := err.(validator.ValidationErrors)

	errMessages := make([]string, len(errorFields))

	for k, errorField := range errorFields {
		errMessages[k] = fmt.Sprintf("invalid '%s' with value '%v'", errorField.Field(), errorField.Value())
	}

	return fmt.Errorf(strings.Join(errMessages, ", "))
}

func (handler HTTPHandler) GetManyTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := handler.TicketUseCase.GetManyTicket(ctx)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "list of tickets",
		Data:    resp,
	})
}

func (handler HTTPHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ticketID := mux.Vars(r)["ticketId"]

	resp, err := handler.TicketUseCase.Cancel(ctx, ticketID)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "ticket has been successfully cancelled",
		Data:    resp,
	})
}

func (handler HTTPHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := TransferRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}
	req.TicketID = mux.Vars(r)["ticketId"]

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.TicketUseCase.Transfer(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "ticket has been successfully transferred",
		Data:    resp,
	})
}

func (handler HTTPHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := CheckInRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.TicketUseCase.CheckIn(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "ticket has been successfully checked in",
		Data:    resp,
	})
}
