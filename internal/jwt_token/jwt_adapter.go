package jwttoken

import (
	"tracker/internal/platform/middleware"
)

// MiddlewareAdapter exposes JWTService to the survey access middleware.
type MiddlewareAdapter struct {
	service *JWTService
}

func NewMiddlewareAdapter(service *JWTService) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.SurveyClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.SurveyClaims{SurveyID: claims.SurveyID, UserID: claims.UserID}, nil
}
