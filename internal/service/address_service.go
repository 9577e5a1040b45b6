package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	apperrors "parkfacil/internal/errors"
)

var cepPattern = regexp.MustCompile(`^\d{8}$`)

type Address struct {
	ZipCode      string `json:"zip_code"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// AddressService resolves Brazilian CEP codes through the public ViaCEP API.
type AddressService struct {
	BaseURL string
	Client  *http.Client
}

func NewAddressService() *AddressService {
	return &AddressService{
		BaseURL: "https://viacep.com.br/ws",
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *AddressService) Lookup(cep string) (*Address, error) {
	if !cepPattern.MatchString(cep) {
		return nil, apperrors.NewHTTPError(http.StatusBadRequest, "zip code must be 8 digits")
	}

	resp, err := s.Client.Get(fmt.Sprintf("%s/%s/json/", s.BaseURL, cep))
	if err != nil {
		return nil, fmt.Errorf("error calling address lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("address lookup returned status %d", resp.StatusCode)
	}

	var payload struct {
		Cep        string `json:"cep"`
		Logradouro string `json:"logradouro"`
		Bairro     string `json:"bairro"`
		Localidade string `json:"localidade"`
		UF         string `json:"uf"`
		Erro       bool   `json:"erro"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("error decoding address lookup response: %w", err)
	}
	if payload.Erro {
		return nil, apperrors.NewHTTPError(http.StatusNotFound, "zip code not found")
	}

	return &Address{
		ZipCode:      payload.Cep,
		Street:       payload.Logradouro,
		Neighborhood: payload.Bairro,
		City:         payload.Localidade,
		State:        payload.UF,
	}, nil
}
