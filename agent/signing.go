// Package agent implements the control-plane-to-on-host-agent RPC
// surface: command signing, the prefix allowlist, shell-command
// sanitization, hostname validation, and the bootstrap payload generator.
package agent

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// SignCommand computes the HMAC-SHA256 signature over
// "request_id:command:params_json" keyed by the agent's per-agent
// secret. HMAC has no third-party alternative worth reaching for, so
// it's implemented directly on crypto/hmac.
func SignCommand(secret []byte, requestID, command, paramsJSON string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(requestID))
	mac.Write([]byte(":"))
	mac.Write([]byte(command))
	mac.Write([]byte(":"))
	mac.Write([]byte(paramsJSON))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCommand reports whether signature is the correct HMAC-SHA256
// signature for the given request, using a constant-time comparison to
// avoid leaking timing information about the secret.
func VerifyCommand(secret []byte, requestID, command, paramsJSON, signature string) bool {
	expected := SignCommand(secret, requestID, command, paramsJSON)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
