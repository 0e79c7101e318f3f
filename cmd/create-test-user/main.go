package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"skeptical-attorney-backend/config"
	"skeptical-attorney-backend/logging"
	"skeptical-attorney-backend/middleware"
	"skeptical-attorney-backend/models"
	"skeptical-attorney-backend/repository"
	"skeptical-attorney-backend/rules"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	logger := logging.Must("info", "console")
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	email := "test@example.com"
	password := "testpassword123"
	name := "Test User"
	firm := "Test & Associates"

	var userID uuid.UUID
	err = pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&userID)
	if err == nil {
		logger.Info("user already exists, issuing a new token", zap.String("email", email), zap.String("user_id", userID.String()))
	} else {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			logger.Fatal("failed to hash password", zap.Error(err))
		}
		err = pool.QueryRow(ctx, `
			INSERT INTO users (email, password_hash, name, firm_name, billing_goal)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, email, string(hashedPassword), name, firm, "6 billable hours per day").Scan(&userID)
		if err != nil {
			logger.Fatal("failed to create user", zap.Error(err))
		}

		if err := createSampleCase(ctx, repository.NewCaseRepository(pool), userID, cfg.Location()); err != nil {
			logger.Fatal("failed to create sample case", zap.Error(err))
		}
	}

	secret, hash, err := middleware.NewTokenSecret()
	if err != nil {
		logger.Fatal("failed to generate token", zap.Error(err))
	}
	token := &models.APIToken{UserID: userID, SecretHash: hash, Label: "create-test-user"}
	if err := repository.NewTokenRepository(pool).Create(ctx, token); err != nil {
		logger.Fatal("failed to store token", zap.Error(err))
	}

	fmt.Printf("Test user ready\n")
	fmt.Printf("   ID: %s\n", userID)
	fmt.Printf("   Email: %s\n", email)
	fmt.Printf("   Token: %s\n", middleware.FormatToken(token.ID, secret))
	fmt.Fprintln(os.Stderr, "The token is shown once; store it now.")
}

// createSampleCase adds a case with a trial six weeks out and two open deadlines
func createSampleCase(ctx context.Context, cases *repository.CaseRepository, userID uuid.UUID, loc *time.Location) error {
	today := rules.CivilDate(time.Now(), loc)
	trial := rules.FormatDate(today.AddDate(0, 0, 42))
	caseType := "personal_injury"
	client := "Maria Rivera"

	c := &models.Case{
		UserID:     userID,
		CaseName:   "Rivera v. Coastal Freight",
		CaseNumber: "24STCV00123",
		CaseType:   &caseType,
		Client:     &client,
		TrialDate:  &trial,
		Deadlines: models.Deadlines{
			{ID: uuid.NewString(), Date: rules.FormatDate(today.AddDate(0, 0, 3)), Description: "Serve supplemental interrogatory responses"},
			{ID: uuid.NewString(), Date: rules.FormatDate(today.AddDate(0, 0, 10)), Description: "Opposition to motion to compel due"},
		},
	}
	return cases.Create(ctx, c)
}
