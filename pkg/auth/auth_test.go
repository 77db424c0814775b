package auth

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/arnavshah/carematch-api/pkg/database"
)

func TestPasswordHash(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPasswordHash("s3cret", hash) {
		t.Errorf("Expected password to match its hash")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Errorf("Expected wrong password to be rejected")
	}
}

func TestTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	admin, err := CreateToken("root")
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	claims, err := VerifyToken(admin)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if claims.Role != RoleAdmin || claims.Username != "root" {
		t.Errorf("Expected admin claims for root, got %+v", claims)
	}

	worker, err := CreateWorkerToken("w1")
	if err != nil {
		t.Fatalf("CreateWorkerToken failed: %v", err)
	}
	claims, err = VerifyToken(worker)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if claims.Role != RoleWorker || claims.WorkerID != "w1" {
		t.Errorf("Expected worker claims for w1, got %+v", claims)
	}

	if _, err := CreateWorkerToken(""); err == nil {
		t.Errorf("Expected error for empty worker id")
	}

	t.Setenv("JWT_SECRET", "another-secret")
	if _, err := VerifyToken(worker); err == nil {
		t.Errorf("Expected token signed with an old secret to be rejected")
	}
}

func TestExpiredToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	old := TokenTTL
	TokenTTL = -time.Minute
	defer func() { TokenTTL = old }()

	token, err := CreateToken("root")
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	if _, err := VerifyToken(token); err == nil {
		t.Errorf("Expected expired token to be rejected")
	}
}

func TestHMACKeys(t *testing.T) {
	t.Setenv("API_MASTER_SECRET", "master")

	key := GenerateHMACKey("acme.integration")
	owner, err := VerifyHMACKey(key)
	if err != nil {
		t.Fatalf("VerifyHMACKey failed: %v", err)
	}
	if owner != "acme.integration" {
		t.Errorf("Expected owner acme.integration, got %s", owner)
	}

	tampered := key[:len(key)-1] + "0"
	if strings.HasSuffix(key, "0") {
		tampered = key[:len(key)-1] + "1"
	}
	if _, err := VerifyHMACKey(tampered); err == nil {
		t.Errorf("Expected tampered key to be rejected")
	}
	for _, bad := range []string{"", "nodot", ".sig", "user."} {
		if _, err := VerifyHMACKey(bad); err == nil {
			t.Errorf("Expected %q to be rejected", bad)
		}
	}
}

func TestVerifyAPIKeyAndAdmin(t *testing.T) {
	t.Setenv("API_MASTER_SECRET", "master")
	PasswordCost = bcrypt.MinCost

	db, err := database.Open("", filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	key := GenerateHMACKey("partner")
	first, err := VerifyAPIKey(db, key)
	if err != nil {
		t.Fatalf("VerifyAPIKey failed: %v", err)
	}
	second, err := VerifyAPIKey(db, key)
	if err != nil {
		t.Fatalf("VerifyAPIKey failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("Expected the same key record, got %d and %d", first.ID, second.ID)
	}
	if second.LastUsed == nil {
		t.Errorf("Expected LastUsed to be set")
	}
	if _, err := VerifyAPIKey(db, "partner.bad"); err == nil {
		t.Errorf("Expected invalid key to be rejected")
	}

	if err := EnsureAdminExists(db, "boss", "pw"); err != nil {
		t.Fatalf("EnsureAdminExists failed: %v", err)
	}
	if err := EnsureAdminExists(db, "other", "pw"); err != nil {
		t.Fatalf("EnsureAdminExists failed: %v", err)
	}
	var users []database.MasterUser
	db.Find(&users)
	if len(users) != 1 || users[0].Username != "boss" {
		t.Errorf("Expected a single admin named boss, got %+v", users)
	}
}
