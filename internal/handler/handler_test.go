package handler_test

import (
	"fmt"
	"testing"
	"time"

	"coachly/config"
	"coachly/internal/models"
	"coachly/internal/repository"
	"coachly/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testDeps struct {
	cfg             *config.Config
	db              *gorm.DB
	userRepo        *repository.UserRepository
	roleRepo        *repository.RoleRepository
	walletRepo      *repository.WalletRepository
	transactionRepo *repository.TransactionRepository
	withdrawalRepo  *repository.WithdrawalRepository
	courseRepo      *repository.CourseRepository
	enrollmentRepo  *repository.EnrollmentRepository
	auditRepo       *repository.AuditLogRepository
	provider        *payment.StubProvider
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.UserRole{}, &models.Wallet{},
		&models.CreditTransaction{}, &models.WithdrawalRequest{},
		&models.Transaction{}, &models.Course{}, &models.Enrollment{},
		&models.AuditLog{},
	))
	return &testDeps{
		cfg:             testConfig(),
		db:              db,
		userRepo:        repository.NewUserRepository(db),
		roleRepo:        repository.NewRoleRepository(db),
		walletRepo:      repository.NewWalletRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		withdrawalRepo:  repository.NewWithdrawalRepository(db),
		courseRepo:      repository.NewCourseRepository(db),
		enrollmentRepo:  repository.NewEnrollmentRepository(db),
		auditRepo:       repository.NewAuditLogRepository(db),
		provider:        payment.NewStubProvider(),
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", Env: "test"},
		JWT: config.JWTConfig{
			AccessSecret:  "test-access",
			RefreshSecret: "test-refresh",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: time.Hour,
			Issuer:        "coachly-test",
		},
		Payment: config.PaymentConfig{
			GatewayBaseURL: "http://gateway.test",
			SecretKey:      "sk-test",
			WebhookSecret:  "whsec-test",
			AppBaseURL:     "http://app.test",
			Currency:       "MWK",
		},
		Withdrawal: config.WithdrawalConfig{
			CreditRateMWK:   decimal.RequireFromString("1000"),
			MinCredits:      decimal.RequireFromString("10"),
			MaxCredits:      decimal.RequireFromString("10000"),
			DailyCapCredits: decimal.RequireFromString("20000"),
			MaxPerHour:      3,
			CreditAgingDays: 0,
		},
	}
}

// authAs injects the user into context the way AuthRequired would.
func authAs(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

// seedUser creates a user with the given role and returns it.
func (d *testDeps) seedUser(t *testing.T, id uint, role string) *models.User {
	t.Helper()
	u := &models.User{
		ID:           id,
		Username:     fmt.Sprintf("user%d", id),
		Email:        fmt.Sprintf("user%d@test.local", id),
		PasswordHash: "x",
	}
	require.NoError(t, d.userRepo.Create(u))
	_, err := d.roleRepo.Upsert(u.ID, role, nil)
	require.NoError(t, err)
	return u
}

// fund credits a wallet directly via the ledger path.
func (d *testDeps) fund(t *testing.T, userID uint, amount string) {
	t.Helper()
	_, err := d.walletRepo.ApplyLedgerEntry(userID, decimal.RequireFromString(amount), "purchase", "transaction", "seed", "")
	require.NoError(t, err)
}
