package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"parkfacil/internal/service"
)

type AddressHandler struct {
	Service *service.AddressService
}

func NewAddressHandler(svc *service.AddressService) *AddressHandler {
	return &AddressHandler{Service: svc}
}

func (h *AddressHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	address, err := h.Service.Lookup(mux.Vars(r)["zipCode"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, address)
}
