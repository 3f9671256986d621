package api

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"mime/multipart"
	"strings"
)

// The widget frontend always sends a boundary of 27 dashes followed by 24
// random digits, so requests keep that shape.
const (
	boundaryPrefix = "---------------------------"
	boundaryDigits = 24
)

type formField struct {
	name  string
	value string
}

func encodeForm(fields []formField) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(boundaryPrefix + randomDigits(boundaryDigits)); err != nil {
		return nil, "", fmt.Errorf("failed to set form boundary: %w", err)
	}

	for _, field := range fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", field.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close form: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

// randomDigits returns n decimal digits, the first one never zero.
func randomDigits(n int) string {
	if n <= 0 {
		return ""
	}

	var sb strings.Builder
	sb.Grow(n)
	sb.WriteByte(byte('1' + rand.IntN(9)))
	for i := 1; i < n; i++ {
		sb.WriteByte(byte('0' + rand.IntN(10)))
	}

	return sb.String()
}
