package qr

import (
	"io"

	"github.com/mdp/qrterminal/v3"
	qrcode "github.com/skip2/go-qrcode"
)

// Half-block glyphs, two QR rows per terminal line.
const (
	blackWhite = "▄"
	blackBlack = " "
	whiteBlack = "▀"
	whiteWhite = "█"
)

// Print renders url as a scannable QR code to w. Invert swaps dark and light
// modules for terminals with a light background.
func Print(w io.Writer, url string, invert bool) {
	cfg := qrterminal.Config{
		Level:          qrterminal.L,
		Writer:         w,
		HalfBlocks:     true,
		BlackChar:      blackBlack,
		WhiteBlackChar: whiteBlack,
		WhiteChar:      whiteWhite,
		BlackWhiteChar: blackWhite,
		QuietZone:      1,
	}

	if invert {
		cfg.BlackChar, cfg.WhiteChar = whiteWhite, blackBlack
		cfg.WhiteBlackChar, cfg.BlackWhiteChar = blackWhite, whiteBlack
	}

	qrterminal.GenerateWithConfig(url, cfg)
}

// PNG encodes url as a size x size PNG image.
func PNG(url string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}

	return qrcode.Encode(url, qrcode.Medium, size)
}
