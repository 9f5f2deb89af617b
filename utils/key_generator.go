package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
)

// APIKeyBytes is the entropy behind every issued API key (64 hex characters).
const APIKeyBytes = 32

func GenerateKey(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be a positive integer")
	}

	bytes := make([]byte, length)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(bytes), nil
}

func GenerateAPIKey() (string, error) {
	return GenerateKey(APIKeyBytes)
}
