package storage

// sealed is one AES-GCM sealed value, base64-encoded as nonce || ciphertext.
type sealed string

type document struct {
	Profile   sealed `json:"profile,omitempty"`
	TokenPair sealed `json:"token_pair,omitempty"`
}
