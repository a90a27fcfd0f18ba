package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// SubscriberID identifica um assinante do stream de métricas nos logs
func SubscriberID() string {
	return gonanoid.MustGenerate(idAlphabet, 12)
}
