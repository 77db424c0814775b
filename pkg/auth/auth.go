package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/arnavshah/carematch-api/pkg/database"
)

// Token roles
const (
	RoleAdmin  = "admin"
	RoleWorker = "worker"
)

// TokenTTL is how long issued tokens stay valid
var TokenTTL = 24 * time.Hour

// PasswordCost is the bcrypt cost for admin passwords
var PasswordCost = 14

var jwtAlgorithm = jwt.SigningMethodHS256

// Claims represents the JWT claims
type Claims struct {
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
	WorkerID string `json:"worker_id,omitempty"`
	jwt.RegisteredClaims
}

func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new admin JWT token for a user
func CreateToken(username string) (string, error) {
	return sign(&Claims{Username: username, Role: RoleAdmin})
}

// CreateWorkerToken creates a JWT token that identifies a care worker
func CreateWorkerToken(workerID string) (string, error) {
	if workerID == "" {
		return "", errors.New("worker id is required")
	}
	return sign(&Claims{WorkerID: workerID, Role: RoleWorker})
}

func sign(claims *Claims) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(TokenTTL))
	if claims.WorkerID != "" {
		claims.Subject = claims.WorkerID
	} else {
		claims.Subject = claims.Username
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(jwtSecret())
}

// VerifyToken verifies a JWT token
func VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret(), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// VerifyAPIKey checks the key's signature, then loads or registers its record and marks it used
func VerifyAPIKey(db *gorm.DB, key string) (*database.APIKey, error) {
	name, err := VerifyHMACKey(key)
	if err != nil {
		return nil, err
	}

	var apiKey database.APIKey
	err = db.Where(database.APIKey{Key: key}).FirstOrCreate(&apiKey, database.APIKey{
		Key:        key,
		Name:       name,
		KeyPreview: KeyPreview(key),
		RateLimit:  10000,
	}).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	apiKey.LastUsed = &now
	db.Model(&apiKey).Update("last_used", now)

	return &apiKey, nil
}

// EnsureAdminExists creates the master user when no admin exists yet
func EnsureAdminExists(db *gorm.DB, username, password string) error {
	var count int64
	if err := db.Model(&database.MasterUser{}).Count(&count).Error; err != nil {
		return err
	}

	if count == 0 {
		if username == "" {
			username = "admin"
		}
		if password == "" {
			password = "admin123"
		}

		hash, err := HashPassword(password)
		if err != nil {
			return err
		}

		user := database.MasterUser{
			Username:     username,
			PasswordHash: hash,
		}

		err = db.Create(&user).Error
		if err == nil {
			log.Info().Str("username", username).Msg("default admin user created")
		}
		return err
	}
	return nil
}

// GenerateHMACKey creates a signed API key using HMAC-SHA256
func GenerateHMACKey(userID string) string {
	return userID + "." + sign256(userID)
}

// VerifyHMACKey validates an HMAC-signed API key and returns its owner
func VerifyHMACKey(key string) (string, error) {
	idx := strings.LastIndex(key, ".")
	if idx <= 0 || idx == len(key)-1 {
		return "", errors.New("invalid key format")
	}

	userID := key[:idx]
	providedSignature := key[idx+1:]

	// constant-time comparison
	if !hmac.Equal([]byte(providedSignature), []byte(sign256(userID))) {
		return "", errors.New("invalid signature")
	}

	return userID, nil
}

// KeyPreview returns a short, non-secret form of a key for listings
func KeyPreview(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "..." + key[len(key)-4:]
}

func sign256(userID string) string {
	h := hmac.New(sha256.New, []byte(os.Getenv("API_MASTER_SECRET")))
	h.Write([]byte(userID))
	return hex.EncodeToString(h.Sum(nil))
}
