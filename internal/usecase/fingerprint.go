package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Fingerprint digests exactly {patient_id, normalized_slot} in a fixed,
// labelled order, so key-reuse detection is independent of payload
// serialization quirks. When the slot parses, the normalized UTC instant is
// hashed, making "15:00+02:00" and "13:00Z" the same request; otherwise the
// trimmed raw string keeps the digest deterministic for invalid input too.
func Fingerprint(req BookingRequest) string {
	patient := strings.TrimSpace(req.PatientID)
	slot := strings.TrimSpace(req.Slot)
	if t, err := time.Parse(time.RFC3339, slot); err == nil {
		slot = t.UTC().Format(time.RFC3339Nano)
	}

	sum := sha256.Sum256([]byte("patient_id=" + patient + "\x00" + "slot=" + slot))
	return hex.EncodeToString(sum[:])
}
