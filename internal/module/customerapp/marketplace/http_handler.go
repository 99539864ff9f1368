package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
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
	Validate           *validator.Validate
	MarketplaceUseCase MarketplaceUseCase
}

func InitHTTPHandler(router *mux.Router, customerSession *middleware.CustomerSession, validate *validator.Validate, marketplaceUseCase MarketplaceUseCase) {
	handler := &HTTPHandler{
		Validate:           validate,
		MarketplaceUseCase: marketplaceUseCase,
	}

	router.HandleFunc("/tm-fulfillment/v1/customerapp/listings", publicMiddleware.SetRouteChain(handler.CreateListing, customerSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/tm-fulfillment/v1/customerapp/listings", publicMiddleware.SetRouteChain(handler.GetManyListing, customerSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/tm-fulfillment/v1/customerapp/listings/{listingId}/purchase", publicMiddleware.SetRouteChain(handler.Purchase, customerSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/tm-fulfillment/v1/customerapp/listings/{listingId}/cancel", publicMiddleware.SetRouteChain(handler.CancelListing, customerSession.Verify)).Methods(http.MethodPost)
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

func (handler HTTPHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := CreateListingRequest{}
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

	resp, err := handler.MarketplaceUseCase.CreateListing(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}
	response.JSON(w, http.StatusCreated, response.RESTEnvelope{
		Status:  status.CREATED,
		Message: "listing has been successfully created",
		Data:    resp,
	})
}

func (handler HTTPHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := PurchaseRequest{}
	if r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
				Status:  status.UNPROCESSABLE_ENTITY,
				Message: err.Error(),
			})

			return
		}
	}
	req.ListingID = mux.Vars(r)["listingId"]

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.MarketplaceUseCase.Purchase(ctx, req)
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
		Message: "listing has been successfully purchased",
		Data:    resp,
	})
}

func (handler HTTPHandler) CancelListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listingID := mux.Vars(r)["listingId"]

	resp, err := handler.MarketplaceUseCase.CancelListing(ctx, listingID)
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
		Message: "listing has been successfully cancelled",
		Data:    resp,
	})
}

func (handler HTTPHandler) GetManyListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	size, _ := strconv.ParseInt(r.URL.Query().Get("size"), 10, 64)
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}

	req := GetManyListingRequest{
		EventID: r.URL.Query().Get("event_id"),
		Status:  r.URL.Query().Get("status"),
		Page:    page,
		Size:    size,
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.MarketplaceUseCase.GetManyListing(ctx, req)
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
		Message: "list of listings",
		Data:    resp,
		Meta: &response.Meta{
			Page: page,
			Size: size,
		},
	})
}
