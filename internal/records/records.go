// Package records persists prediction history per anonymous session.
//
// A session is identified by an opaque client-supplied token (or a
// server-generated UUID when the client sends none). Each session maps to one
// user row; every scored prediction is appended to that user's history.
package records

import (
	"context"
	"errors"
	"time"

	"github.com/cardioserve/cardioserve/internal/idgen"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrSessionExists = errors.New("session already registered")
)

// User is one anonymous session's identity.
type User struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"session_id"`
	CreatedAt        time.Time `json:"created_at"`
	PredictionsCount int       `json:"predictions_count"`
}

// Outcome is the stored scoring result of one prediction.
type Outcome struct {
	Prediction     int     `json:"prediction"`
	RiskPercentage float64 `json:"risk_percentage"`
	RiskLevel      string  `json:"risk_level"`
	Confidence     float64 `json:"confidence"`
}

// Prediction is one scored request with its inputs and outcome.
type Prediction struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Features  map[string]float64 `json:"input_features"`
	Results   Outcome            `json:"prediction_results"`
	CreatedAt time.Time          `json:"created_at"`
	IPAddress string             `json:"ip_address"`
	UserAgent string             `json:"-"`
}

// Stats is the aggregate usage snapshot.
type Stats struct {
	TotalUsers       int            `json:"total_users"`
	TotalPredictions int            `json:"total_predictions"`
	Recent24h        int            `json:"recent_predictions_24h"`
	RiskDistribution map[string]int `json:"risk_distribution"`
}

// Store persists users and their predictions.
type Store interface {
	// CreateUser inserts a new user. Returns ErrSessionExists if the
	// session ID is already registered.
	CreateUser(ctx context.Context, user *User) error
	// GetUserBySession returns the user for a session with
	// PredictionsCount populated, or ErrUserNotFound.
	GetUserBySession(ctx context.Context, sessionID string) (*User, error)
	// CreatePrediction appends a prediction to a user's history.
	CreatePrediction(ctx context.Context, pred *Prediction) error
	// ListBySession returns a session's predictions, newest first.
	ListBySession(ctx context.Context, sessionID string) ([]*Prediction, error)
	// Stats returns the aggregate usage snapshot.
	Stats(ctx context.Context) (*Stats, error)
}

// Service coordinates session resolution and prediction persistence.
type Service struct {
	store Store
}

// NewService creates a records service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

// GetOrCreateUser resolves a session to its user, creating one on first use.
// Concurrent first requests for the same session are resolved through the
// store's uniqueness guarantee: the loser refetches the winner's row.
func (s *Service) GetOrCreateUser(ctx context.Context, sessionID string) (*User, error) {
	user, err := s.store.GetUserBySession(ctx, sessionID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	user = &User{
		ID:        idgen.WithPrefix("usr_"),
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
	}
	err = s.store.CreateUser(ctx, user)
	if errors.Is(err, ErrSessionExists) {
		return s.store.GetUserBySession(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SavePrediction records a scored prediction against a user.
func (s *Service) SavePrediction(ctx context.Context, user *User, features map[string]float64, outcome Outcome, ipAddress, userAgent string) (*Prediction, error) {
	pred := &Prediction{
		ID:        idgen.WithPrefix("pred_"),
		UserID:    user.ID,
		Features:  features,
		Results:   outcome,
		CreatedAt: time.Now().UTC(),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	if err := s.store.CreatePrediction(ctx, pred); err != nil {
		return nil, err
	}
	return pred, nil
}

// History returns a session's user and its predictions, newest first.
func (s *Service) History(ctx context.Context, sessionID string) (*User, []*Prediction, error) {
	user, err := s.store.GetUserBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	preds, err := s.store.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return user, preds, nil
}

// Stats returns the aggregate usage snapshot.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.store.Stats(ctx)
}

// recentCutoff is the lower bound of the rolling 24h stats window.
func recentCutoff() time.Time {
	return time.Now().UTC().Add(-24 * time.Hour)
}
