package dto

import "fleet-route-optimizer/internal/domain"

type UploadSummary struct {
	CitiesCount int      `json:"cities_count"`
	RoutesCount int      `json:"routes_count"`
	TruckTypes  []string `json:"truck_types"`
}

type UploadResponse struct {
	Success  bool                 `json:"success"`
	Message  string               `json:"message"`
	Data     UploadSummary        `json:"data"`
	FileData domain.InputDocument `json:"file_data"`
}
