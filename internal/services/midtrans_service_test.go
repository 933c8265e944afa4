package services

import (
	"crypto/sha512"
	"encoding/hex"
	"testing"
)

func TestVerifyMidtransSignature(t *testing.T) {
	const (
		orderID     = "DUE-42-a1b2c3d4"
		statusCode  = "200"
		grossAmount = "25000.00"
		serverKey   = "SB-Mid-server-testkey"
	)

	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	valid := hex.EncodeToString(sum[:])

	if !verifyMidtransSignature(orderID, statusCode, grossAmount, serverKey, valid) {
		t.Error("valid signature was rejected")
	}
	if verifyMidtransSignature(orderID, statusCode, grossAmount, serverKey, "deadbeef") {
		t.Error("forged signature was accepted")
	}
	if verifyMidtransSignature(orderID, statusCode, "99999.00", serverKey, valid) {
		t.Error("signature accepted despite a tampered amount")
	}
	if verifyMidtransSignature(orderID, statusCode, grossAmount, "other-key", valid) {
		t.Error("signature accepted under a different server key")
	}
}
