package api

import (
	"github.com/rfroumine/dream-heatmap/internal/service"
)

// DatasetInfo contains information about a dataset for the API response.
type DatasetInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DatasetRegistry holds heatmap services for all configured datasets.
type DatasetRegistry struct {
	services       map[string]*service.HeatmapService
	defaultDataset string
	datasetOrder   []string
	title          string
}

// NewDatasetRegistry creates a new dataset registry.
func NewDatasetRegistry(defaultDataset string, order []string, title string) *DatasetRegistry {
	return &DatasetRegistry{
		services:       make(map[string]*service.HeatmapService),
		defaultDataset: defaultDataset,
		datasetOrder:   order,
		title:          title,
	}
}

// Register adds a heatmap service for a dataset.
func (r *DatasetRegistry) Register(datasetID string, svc *service.HeatmapService) {
	r.services[datasetID] = svc
}

// Get returns the heatmap service for a dataset, or nil if not found.
func (r *DatasetRegistry) Get(datasetID string) *service.HeatmapService {
	return r.services[datasetID]
}

// DefaultDatasetID returns the default dataset ID.
func (r *DatasetRegistry) DefaultDatasetID() string {
	return r.defaultDataset
}

// DatasetIDs returns all dataset IDs in config order.
func (r *DatasetRegistry) DatasetIDs() []string {
	return r.datasetOrder
}

// Title returns the configured site title.
func (r *DatasetRegistry) Title() string {
	if r.title != "" {
		return r.title
	}
	return "Heatmap Explorer"
}

// Datasets returns dataset info for all registered datasets in config order.
func (r *DatasetRegistry) Datasets() []DatasetInfo {
	infos := make([]DatasetInfo, 0, len(r.datasetOrder))
	for _, id := range r.datasetOrder {
		name := id
		if svc := r.services[id]; svc != nil {
			name = svc.Metadata().Name
		}
		infos = append(infos, DatasetInfo{
			ID:   id,
			Name: name,
		})
	}
	return infos
}
