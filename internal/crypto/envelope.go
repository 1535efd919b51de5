package crypto

import (
	"encoding/base64"
	"encoding/json"
)

// envelopeVersion is the only version this package emits. Readers also
// accept it as the only version they recognize; a future version bump
// would require a new envelope shape and a parallel decode path.
const envelopeVersion = 2

// envelope is the JSON shape wrapping AES-GCM ciphertext, per spec.md §4.2.
type envelope struct {
	Version        int    `json:"v"`
	Encrypted      bool   `json:"encrypted"`
	IV             string `json:"iv"`
	Data           string `json:"data"`
	CustomPassword bool   `json:"customPassword,omitempty"`
}

// isEnvelope reports whether data parses as an envelope JSON object.
// Used by decryptOrPassthrough to distinguish encrypted content from
// legacy plaintext during migration.
func isEnvelope(data []byte) (envelope, bool) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, false
	}

	if !env.Encrypted || env.Version == 0 || env.IV == "" || env.Data == "" {
		return envelope{}, false
	}

	return env, true
}

func encodeEnvelope(iv, ciphertextAndTag []byte, customPassword bool) ([]byte, error) {
	env := envelope{
		Version:        envelopeVersion,
		Encrypted:      true,
		IV:             base64.StdEncoding.EncodeToString(iv),
		Data:           base64.StdEncoding.EncodeToString(ciphertextAndTag),
		CustomPassword: customPassword,
	}

	return json.Marshal(env)
}
