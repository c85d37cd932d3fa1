package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/oculomed/glauco-api/internal/middleware"
	"github.com/oculomed/glauco-api/internal/repository"
)

// PatientResolver maps the authenticated user to their patient profile.
// The mapping never changes after registration, so it is cached
// aggressively.
type PatientResolver struct {
	repo  repository.PatientRepository
	cache *cache.Cache
}

func NewPatientResolver(repo repository.PatientRepository) *PatientResolver {
	return &PatientResolver{
		repo:  repo,
		cache: cache.New(30*time.Minute, time.Hour),
	}
}

// PatientID returns the patient profile ID for the authenticated caller.
func (r *PatientResolver) PatientID(c *gin.Context) (uuid.UUID, error) {
	userID, ok := middleware.UserID(c)
	if !ok {
		return uuid.Nil, fmt.Errorf("no authenticated user on request")
	}

	key := userID.String()
	if v, found := r.cache.Get(key); found {
		return v.(uuid.UUID), nil
	}

	patient, err := r.repo.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve patient profile: %w", err)
	}

	r.cache.Set(key, patient.ID, cache.DefaultExpiration)
	return patient.ID, nil
}
