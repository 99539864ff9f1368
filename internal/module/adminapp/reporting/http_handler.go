package reporting

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tsel-ticketmaster/tm-fulfillment/internal/pkg/middleware"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/errors"
	publicMiddleware "github.com/tsel-ticketmaster/tm-fulfillment/pkg/middleware"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/response"
	"github.com/tsel-ticketmaster/tm-fulfillment/pkg/status"
)

type HTTPHandler struct {
	ReportingUseCase ReportingUseCase
}

func InitHTTPHandler(router *mux.Router, adminSession *middleware.AdminSession, reportingUseCase ReportingUseCase) {
	handler := &HTTPHandler{
		ReportingUseCase: reportingUseCase,
	}

	router.HandleFunc("/tm-fulfillment/v1/adminapp/events/{eventId}/report", publicMiddleware.SetRouteChain(handler.GetEventReport, adminSession.Verify)).Methods(http.MethodGet)
}

func (handler HTTPHandler) GetEventReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID := mux.Vars(r)["eventId"]

	resp, err := handler.ReportingUseCase.GetEventReport(ctx, eventID)
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
		Message: "event report",
		Data:    resp,
	})
}
