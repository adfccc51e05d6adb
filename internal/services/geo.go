package services

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// GeoService resolves client IPs to coarse location tags for the login
// audit trail.
type GeoService struct {
	baseURL string
	client  *http.Client
}

// NewGeoService creates a new GeoService.
func NewGeoService() *GeoService {
	return &GeoService{
		baseURL: "http://ip-api.com/json",
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type geoResponse struct {
	Status  string `json:"status"`
	Query   string `json:"query"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// Locate returns [ip, city, country] tags for the address, degrading to
// just the bare IP when the lookup fails.
func (s *GeoService) Locate(ip string) []string {
	if ip == "" {
		return nil
	}

	resp, err := s.client.Get(fmt.Sprintf("%s/%s", s.baseURL, ip))
	if err != nil {
		log.Printf("[Geo] Could not geolocate IP %s: %v", ip, err)
		return []string{ip}
	}
	defer resp.Body.Close()

	var geo geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&geo); err != nil || geo.Status != "success" {
		return []string{ip}
	}

	return []string{geo.Query, geo.City, geo.Country}
}
