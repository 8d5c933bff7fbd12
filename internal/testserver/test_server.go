package testserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/skillgate/interviewd/internal/domain/credit"
	"github.com/skillgate/interviewd/internal/domain/interview"
	"github.com/skillgate/interviewd/internal/domain/org"
	"github.com/skillgate/interviewd/internal/domain/student"
	"github.com/skillgate/interviewd/internal/sqlite"
	"github.com/skillgate/interviewd/internal/transport"
)

// TestServer runs the full HTTP stack over an in-memory database.
type TestServer struct {
	Server     *httptest.Server
	DB         *sqlite.DB
	Ledger     *sqlite.Ledger
	Interviews *sqlite.InterviewRepository
	Token      string
	TenantID   string
}

func New(t *testing.T, token, tenantID string) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	ledger := sqlite.NewLedger(db)
	interviewRepo := sqlite.NewInterviewRepository(db)

	services := transport.Services{
		Credits:    credit.NewService(ledger, nil, 0),
		Interviews: interview.NewService(interviewRepo, nil, interview.Config{}),
	}

	resolver := &apiKeyResolver{db: db}
	server := httptest.NewServer(transport.NewRouter(services, resolver, nil))

	ts := &TestServer{
		Server:     server,
		DB:         db,
		Ledger:     ledger,
		Interviews: interviewRepo,
		Token:      token,
		TenantID:   tenantID,
	}

	require.NoError(t, ts.AddAPIKey(token, tenantID))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// Seed provisions an organization and a student for the server's tenant.
func (ts *TestServer) Seed(t *testing.T, quotaLimit, creditsAllocated int) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, ts.Ledger.CreateOrganization(ctx, &org.Organization{
		ID:         "org1",
		TenantID:   ts.TenantID,
		Name:       "Test Org",
		QuotaLimit: quotaLimit,
		CreatedAt:  time.Now(),
	}))
	require.NoError(t, ts.Ledger.CreateStudent(ctx, &student.Student{
		ID:               "stu1",
		TenantID:         ts.TenantID,
		OrgID:            "org1",
		Name:             "Test Student",
		CreditsAllocated: creditsAllocated,
		CanSelfStart:     true,
		DashboardEnabled: true,
		CreatedAt:        time.Now(),
	}))
}

func (ts *TestServer) AddAPIKey(token, tenantID string) error {
	hash := hashToken(token)
	_, err := ts.DB.Exec(
		`INSERT INTO api_keys (key_hash, tenant_id, created_at) VALUES (?, ?, ?)`,
		hash, tenantID, time.Now(),
	)
	return err
}

type apiKeyResolver struct {
	db *sqlite.DB
}

func (r *apiKeyResolver) ResolveTenant(ctx context.Context, token string) (string, error) {
	hash := hashToken(token)
	var tenantID string
	err := r.db.QueryRowContext(ctx, `SELECT tenant_id FROM api_keys WHERE key_hash = ?`, hash).Scan(&tenantID)
	if err != nil || tenantID == "" {
		return "", transport.ErrUnauthorized
	}
	return tenantID, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
