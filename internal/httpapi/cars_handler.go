package httpapi

import (
	"context"
	"errors"
	"net/http"

	"carspec/internal/models"
	"carspec/internal/storage"
	"carspec/internal/utils"
)

// CarStore is the slice of the car repository the read endpoints need.
type CarStore interface {
	ListDetails(ctx context.Context) ([]models.CarDetail, error)
	GetDetailByID(ctx context.Context, carID string) (*models.CarDetail, error)
}

// CarsHandler serves the protected car specification endpoints.
type CarsHandler struct {
	store CarStore
	log   *utils.Logger
}

// NewCarsHandler creates a new cars handler
func NewCarsHandler(store CarStore, log *utils.Logger) *CarsHandler {
	if log == nil {
		log = utils.NewLogger("cars")
	}
	return &CarsHandler{store: store, log: log}
}

// List handles GET /cars - all cars with full specifications
func (h *CarsHandler) List(w http.ResponseWriter, r *http.Request) {
	cars, err := h.store.ListDetails(r.Context())
	if err != nil {
		h.log.Error("failed to list cars", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to list cars")
		return
	}

	if len(cars) == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "No cars found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, cars)
}

// GetByID handles GET /cars/{id}
func (h *CarsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	carID := r.PathValue("id")

	car, err := h.store.GetDetailByID(r.Context(), carID)
	if err != nil {
		if errors.Is(err, storage.ErrCarNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Car not found")
			return
		}
		h.log.Error("failed to get car", "car_id", carID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get car")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, car)
}
