package qr

import (
	qrcode "github.com/skip2/go-qrcode"
)

const DefaultSize = 400

// Encoder renders PNG QR codes.
type Encoder struct {
	size  int
	level qrcode.RecoveryLevel
}

func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = DefaultSize
	}
	return &Encoder{size: size, level: qrcode.Medium}
}

func (e *Encoder) Encode(content string) ([]byte, error) {
	return qrcode.Encode(content, e.level, e.size)
}
