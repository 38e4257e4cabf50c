package records

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a PostgreSQL-backed records store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the users and predictions tables
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id          VARCHAR(36) PRIMARY KEY,
			session_id  VARCHAR(255) UNIQUE NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_users_session ON users(session_id);

		CREATE TABLE IF NOT EXISTS predictions (
			id              VARCHAR(36) PRIMARY KEY,
			user_id         VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			age             DOUBLE PRECISION NOT NULL,
			sex             DOUBLE PRECISION NOT NULL,
			cp              DOUBLE PRECISION NOT NULL,
			trestbps        DOUBLE PRECISION NOT NULL,
			chol            DOUBLE PRECISION NOT NULL,
			fbs             DOUBLE PRECISION NOT NULL,
			restecg         DOUBLE PRECISION NOT NULL,
			thalach         DOUBLE PRECISION NOT NULL,
			exang           DOUBLE PRECISION NOT NULL,
			oldpeak         DOUBLE PRECISION NOT NULL,
			slope           DOUBLE PRECISION NOT NULL,
			ca              DOUBLE PRECISION NOT NULL,
			thal            DOUBLE PRECISION NOT NULL,
			prediction      INTEGER NOT NULL,
			risk_percentage DOUBLE PRECISION NOT NULL,
			risk_level      VARCHAR(50) NOT NULL,
			confidence      DOUBLE PRECISION NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			ip_address      VARCHAR(45),
			user_agent      TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_predictions_user ON predictions(user_id);
		CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at);
	`)
	return err
}

// CreateUser inserts a new user row
func (p *PostgresStore) CreateUser(ctx context.Context, user *User) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO users (id, session_id, created_at) VALUES ($1, $2, $3)
	`, user.ID, user.SessionID, user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrSessionExists
		}
		return err
	}
	return nil
}

// GetUserBySession retrieves a user with its prediction count
func (p *PostgresStore) GetUserBySession(ctx context.Context, sessionID string) (*User, error) {
	user := &User{}
	err := p.db.QueryRowContext(ctx, `
		SELECT u.id, u.session_id, u.created_at, COUNT(pr.id)
		FROM users u
		LEFT JOIN predictions pr ON pr.user_id = u.id
		WHERE u.session_id = $1
		GROUP BY u.id, u.session_id, u.created_at
	`, sessionID).Scan(&user.ID, &user.SessionID, &user.CreatedAt, &user.PredictionsCount)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePrediction stores a scored prediction
func (p *PostgresStore) CreatePrediction(ctx context.Context, pred *Prediction) error {
	f := pred.Features
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO predictions (
			id, user_id,
			age, sex, cp, trestbps, chol, fbs, restecg,
			thalach, exang, oldpeak, slope, ca, thal,
			prediction, risk_percentage, risk_level, confidence,
			created_at, ip_address, user_agent
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22
		)
	`,
		pred.ID, pred.UserID,
		f["age"], f["sex"], f["cp"], f["trestbps"], f["chol"], f["fbs"], f["restecg"],
		f["thalach"], f["exang"], f["oldpeak"], f["slope"], f["ca"], f["thal"],
		pred.Results.Prediction, pred.Results.RiskPercentage, pred.Results.RiskLevel, pred.Results.Confidence,
		pred.CreatedAt, pred.IPAddress, pred.UserAgent,
	)
	return err
}

// ListBySession returns a session's predictions, newest first
func (p *PostgresStore) ListBySession(ctx context.Context, sessionID string) ([]*Prediction, error) {
	var exists bool
	if err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE session_id = $1)`, sessionID,
	).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT pr.id, pr.user_id,
		       pr.age, pr.sex, pr.cp, pr.trestbps, pr.chol, pr.fbs, pr.restecg,
		       pr.thalach, pr.exang, pr.oldpeak, pr.slope, pr.ca, pr.thal,
		       pr.prediction, pr.risk_percentage, pr.risk_level, pr.confidence,
		       pr.created_at, COALESCE(pr.ip_address, ''), COALESCE(pr.user_agent, '')
		FROM predictions pr
		JOIN users u ON u.id = pr.user_id
		WHERE u.session_id = $1
		ORDER BY pr.created_at DESC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var predictions []*Prediction
	for rows.Next() {
		pred := &Prediction{Features: make(map[string]float64, 13)}
		var age, sex, cp, trestbps, chol, fbs, restecg float64
		var thalach, exang, oldpeak, slope, ca, thal float64
		if err := rows.Scan(
			&pred.ID, &pred.UserID,
			&age, &sex, &cp, &trestbps, &chol, &fbs, &restecg,
			&thalach, &exang, &oldpeak, &slope, &ca, &thal,
			&pred.Results.Prediction, &pred.Results.RiskPercentage,
			&pred.Results.RiskLevel, &pred.Results.Confidence,
			&pred.CreatedAt, &pred.IPAddress, &pred.UserAgent,
		); err != nil {
			return nil, err
		}
		pred.Features["age"] = age
		pred.Features["sex"] = sex
		pred.Features["cp"] = cp
		pred.Features["trestbps"] = trestbps
		pred.Features["chol"] = chol
		pred.Features["fbs"] = fbs
		pred.Features["restecg"] = restecg
		pred.Features["thalach"] = thalach
		pred.Features["exang"] = exang
		pred.Features["oldpeak"] = oldpeak
		pred.Features["slope"] = slope
		pred.Features["ca"] = ca
		pred.Features["thal"] = thal
		predictions = append(predictions, pred)
	}
	return predictions, rows.Err()
}

// Stats returns aggregate usage counters
func (p *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{RiskDistribution: make(map[string]int)}

	err := p.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM predictions),
			(SELECT COUNT(*) FROM predictions WHERE created_at > NOW() - INTERVAL '24 hours')
	`).Scan(&stats.TotalUsers, &stats.TotalPredictions, &stats.Recent24h)
	if err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT risk_level, COUNT(*) FROM predictions GROUP BY risk_level
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, err
		}
		stats.RiskDistribution[level] = count
	}
	return stats, rows.Err()
}
