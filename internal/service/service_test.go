package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// pngBytes returns a small PNG whose content depends on shade
func pngBytes(t *testing.T, shade uint8) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.RGBA{shade, shade, shade, 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func fileHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	return form.File["image"][0]
}

type recordingMailer struct {
	mu   sync.Mutex
	to   []string
	body []string
	err  error
}

func (m *recordingMailer) Send(to, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.to = append(m.to, to)
	m.body = append(m.body, body)
	return nil
}

type stubClassifier struct {
	p   Prediction
	err error
}

func (s stubClassifier) Classify(context.Context, []byte) (Prediction, error) {
	return s.p, s.err
}

var errModel = errors.New("model crashed")
