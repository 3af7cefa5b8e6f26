package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/huakang/medtrade/internal/middleware"
	"github.com/huakang/medtrade/internal/trade/entity"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSchema = "test_medtrade"
	JWTSecret  = "medtrade-jwt-secret-key-2024"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates a test database connection using a dedicated test schema.
// Each test gets an isolated schema that is cleaned up after the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "medtrade")
	password := getEnv("DB_PASSWORD", "medtrade123")
	dbname := getEnv("DB_NAME", "medtrade")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// Create a unique test schema for isolation
	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	// First: create schema using a temporary connection
	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// Second: open connection with search_path in DSN so ALL pooled connections use test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Migrate test tables
	err = db.AutoMigrate(
		&entity.Tenant{},
		&entity.Drug{},
		&entity.SupplyInfo{},
		&entity.Order{},
		&entity.OrderItem{},
		&entity.InventoryItem{},
		&entity.InventoryTransaction{},
		&entity.CirculationRecord{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	// Cleanup on test completion
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		// Reconnect to drop the schema
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name, role, tenantID string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":       userID,
		"uid":       userID,
		"name":      name,
		"role":      role,
		"tenant_id": tenantID,
		"iss":       "medtrade",
		"iat":       now.Unix(),
		"exp":       now.Add(24 * time.Hour).Unix(),
		"jti":       fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedTenant creates a tenant of the given type
func SeedTenant(t *testing.T, db *gorm.DB, name, tenantType string) *entity.Tenant {
	t.Helper()
	tenant := &entity.Tenant{
		ID:                      uuid.New().String(),
		Name:                    name,
		Type:                    tenantType,
		UnifiedSocialCreditCode: "91310000" + uuid.New().String()[:10],
		Address:                 "测试地址",
		IsActive:                true,
	}
	if err := db.Create(tenant).Error; err != nil {
		t.Fatalf("Failed to seed tenant: %v", err)
	}
	return tenant
}

// SeedDrug creates a drug master record
func SeedDrug(t *testing.T, db *gorm.DB, name string) *entity.Drug {
	t.Helper()
	drug := &entity.Drug{
		ID:             uuid.New().String(),
		GenericName:    name,
		ApprovalNumber: "国药准字H" + uuid.New().String()[:8],
		Manufacturer:   "测试药厂",
		Specification:  "10mg*20片",
		DosageForm:     "片剂",
	}
	if err := db.Create(drug).Error; err != nil {
		t.Fatalf("Failed to seed drug: %v", err)
	}
	return drug
}

// SeedBatch creates an inventory batch for a tenant
func SeedBatch(t *testing.T, db *gorm.DB, tenantID, drugID, batchNumber string, quantity int, expiryDate time.Time) *entity.InventoryItem {
	t.Helper()
	item := &entity.InventoryItem{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		DrugID:         drugID,
		BatchNumber:    batchNumber,
		ProductionDate: expiryDate.AddDate(-2, 0, 0),
		ExpiryDate:     expiryDate,
		Quantity:       quantity,
		UnitPrice:      10.0,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("Failed to seed inventory batch: %v", err)
	}
	return item
}

// SeedSupply creates an active supply listing
func SeedSupply(t *testing.T, db *gorm.DB, tenantID, drugID string, quantity int, unitPrice float64) *entity.SupplyInfo {
	t.Helper()
	info := &entity.SupplyInfo{
		ID:                uuid.New().String(),
		TenantID:          tenantID,
		DrugID:            drugID,
		AvailableQuantity: quantity,
		UnitPrice:         unitPrice,
		ValidUntil:        time.Now().UTC().AddDate(0, 6, 0),
		MinOrderQuantity:  1,
		Status:            entity.SupplyStatusActive,
	}
	if err := db.Create(info).Error; err != nil {
		t.Fatalf("Failed to seed supply info: %v", err)
	}
	return info
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
