package camera

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

var decodeHints = map[gozxing.DecodeHintType]interface{}{
	gozxing.DecodeHintType_TRY_HARDER: true,
}

// DecodeImage reads an EAN-13 barcode from a frame and returns its text
func DecodeImage(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to binarize frame: %w", err)
	}

	result, err := oned.NewEAN13Reader().Decode(bmp, decodeHints)
	if err != nil {
		return "", fmt.Errorf("no barcode in frame: %w", err)
	}
	return result.GetText(), nil
}

// DecodeReader decodes an encoded image (PNG, JPEG or GIF) and reads its barcode
func DecodeReader(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	return DecodeImage(img)
}

// DecodeFile decodes the barcode in an image file
func DecodeFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	return DecodeReader(file)
}
